// Package store archives collect runs.
//
// DESIGN: Each collect() invocation can be persisted as one run: its
// aggregate records, its per-peer failures and summary counts. The archive
// is client-side only - the server's journal is deliberately in-memory and
// dies with the process; the protocol itself has no persistence.
//
// Currently only the SQLite backend is implemented. For shared archives,
// implement Store against Postgres or similar.
package store

import (
	"context"
	"time"

	"github.com/watchwire/watchwire/internal/collector"
	"github.com/watchwire/watchwire/internal/record"
)

// RunSummary describes one archived collect run.
type RunSummary struct {
	RunID       string
	CollectedAt time.Time
	Peers       int
	Succeeded   int
	Failed      int
	Records     int
}

// Store abstracts the collect-run archive.
type Store interface {
	// SaveRun archives one aggregate in a single transaction - either
	// the whole run is written or none of it.
	SaveRun(ctx context.Context, runID string, collectedAt time.Time, agg *collector.Aggregate) error

	// Runs returns summaries of all archived runs, newest first.
	Runs(ctx context.Context) ([]RunSummary, error)

	// Records returns the archived records of one run, in insert order.
	Records(ctx context.Context, runID string) ([]record.Record, error)

	// Close releases the underlying resources.
	Close() error
}
