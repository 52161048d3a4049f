package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/watchwire/watchwire/internal/collector"
	"github.com/watchwire/watchwire/internal/record"
)

// SQLite archives collect runs in a local SQLite file. The modernc.org
// driver is pure Go, so no CGO is needed.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the SQLite file at dbPath and applies the
// schema migration. The caller must Close it on shutdown.
func NewSQLite(dbPath string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_fk=1", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migration: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	const stmt = `
CREATE TABLE IF NOT EXISTS runs (
    run_id       TEXT PRIMARY KEY,
    collected_at DATETIME NOT NULL,
    peers        INTEGER NOT NULL,
    succeeded    INTEGER NOT NULL,
    failed       INTEGER NOT NULL,
    records      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS observations (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT NOT NULL REFERENCES runs(run_id),
    observed_at TEXT NOT NULL,
    category    TEXT NOT NULL,
    attribute   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS failures (
    id     INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(run_id),
    peer   TEXT NOT NULL,
    error  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_observations_run ON observations(run_id);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("create archive tables: %w", err)
	}
	log.Debug().Msg("SQLite migration applied")
	return nil
}

// SaveRun archives one aggregate in a single transaction.
func (s *SQLite) SaveRun(ctx context.Context, runID string, collectedAt time.Time, agg *collector.Aggregate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, collected_at, peers, succeeded, failed, records) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, collectedAt.UTC(), agg.Peers, agg.Succeeded(), len(agg.Failures), len(agg.Records),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert run: %w", err)
	}

	obsStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (run_id, observed_at, category, attribute) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare observation insert: %w", err)
	}
	defer obsStmt.Close()

	for _, rec := range agg.Records {
		if _, err := obsStmt.ExecContext(ctx, runID, rec.ObservedAt, rec.Category, rec.Attribute); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert observation: %w", err)
		}
	}

	for _, f := range agg.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO failures (run_id, peer, error) VALUES (?, ?, ?)`,
			runID, f.Peer.Addr(), f.Err.Error(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	log.Debug().Str("run_id", runID).Int("records", len(agg.Records)).Msg("Collect run archived")
	return nil
}

// Runs returns summaries of all archived runs, newest first.
func (s *SQLite) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, collected_at, peers, succeeded, failed, records FROM runs ORDER BY collected_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.CollectedAt, &r.Peers, &r.Succeeded, &r.Failed, &r.Records); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Records returns the archived records of one run, in insert order.
func (s *SQLite) Records(ctx context.Context, runID string) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT observed_at, category, attribute FROM observations WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var out []record.Record
	for rows.Next() {
		var rec record.Record
		if err := rows.Scan(&rec.ObservedAt, &rec.Category, &rec.Attribute); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close shuts down the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure SQLite implements Store
var _ Store = (*SQLite)(nil)
