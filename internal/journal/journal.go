// Package journal holds a server's shared observation collection.
//
// DESIGN: Single writer (the producer), many concurrent readers (one per
// inbound session). Append and Snapshot are the only operations; both are
// internally synchronized so a snapshot can never contain a torn record.
// The lock is held only for the structural mutation/copy, never across I/O.
package journal

import (
	"sync"

	"github.com/watchwire/watchwire/internal/record"
)

// Journal is an append-only, ordered sequence of records.
type Journal struct {
	mu      sync.RWMutex
	records []record.Record
}

// New creates an empty journal.
func New() *Journal {
	return &Journal{}
}

// Append validates the record and adds it to the end of the journal.
// Records failing the field invariant are rejected so a torn or
// undecodable entry can never reach the wire.
func (j *Journal) Append(rec record.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	j.mu.Lock()
	j.records = append(j.records, rec)
	j.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the journal's current contents. The copy is
// taken atomically: it reflects the journal at a single instant and is
// safe to encode or mutate without further locking.
func (j *Journal) Snapshot() []record.Record {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]record.Record, len(j.records))
	copy(out, j.records)
	return out
}

// Len returns the current number of records.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.records)
}
