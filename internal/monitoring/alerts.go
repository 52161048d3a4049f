// Package monitoring - alerts.go flags anomalies and errors.
//
// DESIGN: AlertManager logs notable events at appropriate levels:
//   - FlagSlowRun:     Warn when a collect run exceeds the threshold
//   - FlagPeerFailure: Warn per failed peer attempt
//   - FlagEmptyRun:    Warn when a run over a non-empty peer list
//     yields zero records
package monitoring

import "time"

// AlertConfig tunes anomaly thresholds.
type AlertConfig struct {
	SlowRunThreshold time.Duration `yaml:"slow_run_threshold"` // 0 uses the default
}

// AlertManager flags anomalies and errors.
type AlertManager struct {
	logger           *Logger
	slowRunThreshold time.Duration
}

// NewAlertManager creates a new alert manager.
func NewAlertManager(logger *Logger, cfg AlertConfig) *AlertManager {
	threshold := cfg.SlowRunThreshold
	if threshold == 0 {
		threshold = 5 * time.Second
	}
	return &AlertManager{logger: logger, slowRunThreshold: threshold}
}

// FlagSlowRun logs when a collect run exceeds the threshold.
func (am *AlertManager) FlagSlowRun(runID string, elapsed time.Duration) {
	if elapsed < am.slowRunThreshold {
		return
	}
	am.logger.Warn().
		Str("run_id", runID).
		Dur("elapsed", elapsed).
		Msg("slow_collect_run")
}

// FlagPeerFailure logs one failed peer attempt.
func (am *AlertManager) FlagPeerFailure(runID, peer string, err error) {
	am.logger.Warn().
		Str("run_id", runID).
		Str("peer", peer).
		Err(err).
		Msg("peer_failure")
}

// FlagEmptyRun logs when a run over a non-empty peer list yields nothing.
func (am *AlertManager) FlagEmptyRun(runID string, peers int) {
	if peers == 0 {
		return
	}
	am.logger.Warn().
		Str("run_id", runID).
		Int("peers", peers).
		Msg("empty_collect_run")
}
