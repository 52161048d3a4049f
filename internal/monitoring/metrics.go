// Package monitoring - metrics.go provides simple counters.
//
// DESIGN: Lightweight in-memory counters for operational metrics:
//   - sessions/session_errors: Inbound sessions served and write failures
//   - records_sent:            Records written to the wire
//   - attempts_ok/failed:      Outbound peer attempt outcomes
//   - collect_runs:            Completed fan-out invocations
//
// For production, export these to Prometheus or similar.
package monitoring

import "sync/atomic"

// Metrics collects operational counters for the server and the collector.
type Metrics struct {
	sessions       atomic.Int64
	sessionErrors  atomic.Int64
	recordsSent    atomic.Int64
	attemptsOK     atomic.Int64
	attemptsFailed atomic.Int64
	collectRuns    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordSession records an inbound session and how many records it sent.
func (m *Metrics) RecordSession(records int, failed bool) {
	m.sessions.Add(1)
	if failed {
		m.sessionErrors.Add(1)
		return
	}
	m.recordsSent.Add(int64(records))
}

// RecordAttempt records one terminal peer attempt.
func (m *Metrics) RecordAttempt(ok bool) {
	if ok {
		m.attemptsOK.Add(1)
	} else {
		m.attemptsFailed.Add(1)
	}
}

// RecordCollectRun records a completed fan-out invocation.
func (m *Metrics) RecordCollectRun() { m.collectRuns.Add(1) }

// Stats returns current metrics.
func (m *Metrics) Stats() map[string]int64 {
	return map[string]int64{
		"sessions":        m.sessions.Load(),
		"session_errors":  m.sessionErrors.Load(),
		"records_sent":    m.recordsSent.Load(),
		"attempts_ok":     m.attemptsOK.Load(),
		"attempts_failed": m.attemptsFailed.Load(),
		"collect_runs":    m.collectRuns.Load(),
	}
}
