// Package monitoring - telemetry.go records collect runs to JSONL files.
//
// DESIGN: Tracker writes one structured event per fan-out invocation as
// JSONL (one JSON object per line). Events are appended immediately after
// each run for real-time inspection; logging is for operators, telemetry
// is for analytics.
package monitoring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TelemetryConfig controls collect-run telemetry.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`  // Enable telemetry tracking
	LogPath string `yaml:"log_path"` // Path to the JSONL file
}

// PeerOutcome is the per-peer slice of a CollectEvent.
type PeerOutcome struct {
	Peer    string `json:"peer"`
	OK      bool   `json:"ok"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

// CollectEvent captures one complete fan-out invocation.
type CollectEvent struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMS int64         `json:"duration_ms"`
	Peers      int           `json:"peers"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Records    int           `json:"records"`
	Outcomes   []PeerOutcome `json:"outcomes"`
}

// Tracker handles telemetry event recording to file.
type Tracker struct {
	config  TelemetryConfig
	logPath string
	runs    int
	mu      sync.Mutex
}

// NewTracker creates a new telemetry tracker.
func NewTracker(cfg TelemetryConfig) (*Tracker, error) {
	t := &Tracker{config: cfg}

	if !cfg.Enabled {
		return t, nil
	}

	if cfg.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0750); err != nil {
			return nil, err
		}
		t.logPath = cfg.LogPath
	}

	return t, nil
}

// appendJSONL appends a single JSON object as a line to the file.
func appendJSONL(path string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// RecordCollect records a collect-run event.
func (t *Tracker) RecordCollect(event *CollectEvent) {
	if !t.config.Enabled || t.logPath == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.runs++
	if err := appendJSONL(t.logPath, event); err != nil {
		log.Warn().Err(err).Str("path", t.logPath).Msg("Failed to append telemetry event")
	}
}

// Runs returns how many events this tracker has recorded.
func (t *Tracker) Runs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}
