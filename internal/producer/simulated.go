package producer

import (
	"context"
	"time"

	"github.com/watchwire/watchwire/internal/record"
)

// observation is one category/attribute pair the simulated source cycles
// through.
type observation struct {
	category  string
	attribute string
}

// Simulated emits synthetic observations at a fixed interval. It stands in
// for a real monitoring probe when running the demo server.
type Simulated struct {
	interval time.Duration
	rotation []observation
	next     int
	now      func() time.Time
}

// NewSimulated creates a simulated source ticking at the given interval.
func NewSimulated(interval time.Duration) *Simulated {
	return &Simulated{
		interval: interval,
		rotation: []observation{
			{"peugeot", "red"},
			{"renault", "blue"},
			{"citroen", "white"},
			{"fiat", "green"},
		},
		now: time.Now,
	}
}

// Next blocks for the configured interval, then returns the next synthetic
// observation with the current timestamp.
func (s *Simulated) Next(ctx context.Context) (record.Record, error) {
	select {
	case <-ctx.Done():
		return record.Record{}, ctx.Err()
	case <-time.After(s.interval):
	}

	obs := s.rotation[s.next%len(s.rotation)]
	s.next++
	// Basic ISO 8601: the extended form has colons, which the wire
	// format reserves as the field delimiter.
	return record.Record{
		ObservedAt: s.now().UTC().Format("20060102T150405Z"),
		Category:   obs.category,
		Attribute:  obs.attribute,
	}, nil
}
