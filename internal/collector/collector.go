// Package collector implements the client-side fan-out engine.
//
// DESIGN: One collect() invocation issues one connection attempt per
// configured peer, concurrently. Every attempt resolves to exactly one
// terminal Outcome, delivered on a results channel; the collector drains
// that channel exactly N times before it finalizes the aggregate. The
// channel drain replaces the racy "locked counter plus separate equality
// check" completion scheme: an outcome can neither be dropped nor counted
// twice, and finalize runs exactly once, after all N peers have resolved.
//
// A failed peer is terminal immediately - there is no implicit retry.
// Partial aggregates (some peers succeeded, some failed) are the normal
// case, not an error.
package collector

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watchwire/watchwire/internal/monitoring"
	"github.com/watchwire/watchwire/internal/record"
)

// Peer is one configured server address. Duplicates are legal and are
// treated as independent attempts.
type Peer struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr renders the peer as a dialable "host:port" string.
func (p Peer) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Outcome is the terminal state of one attempt. Exactly one of Records
// and Err is meaningful: Err == nil means the attempt succeeded (possibly
// with zero records).
type Outcome struct {
	Peer    Peer
	Records []record.Record
	Err     error
}

// Failure pairs a peer with its terminal error inside an Aggregate.
type Failure struct {
	Peer Peer
	Err  error
}

// Aggregate is the combined result of one collect run. Records holds the
// union of all successful peers' records - order across peers is
// unspecified, order within one peer's contribution is preserved.
type Aggregate struct {
	Peers    int             // number of attempts issued
	Records  []record.Record // union of succeeded attempts
	Failures []Failure       // one entry per failed attempt
}

// Succeeded returns how many attempts resolved successfully.
func (a *Aggregate) Succeeded() int {
	return a.Peers - len(a.Failures)
}

// Config controls attempt behavior.
type Config struct {
	// DialTimeout bounds connection establishment. Zero means the
	// operating system default.
	DialTimeout time.Duration

	// AttemptTimeout bounds a whole attempt (dial + receive). Zero
	// disables the deadline; one unresponsive peer then stalls the
	// entire run, so production configs should set it.
	AttemptTimeout time.Duration
}

// Collector fans out to a fixed set of peers and aggregates the outcomes.
type Collector struct {
	peers   []Peer
	cfg     Config
	metrics *monitoring.Metrics
}

// New creates a collector for the given peers. metrics may be nil.
func New(peers []Peer, cfg Config, metrics *monitoring.Metrics) *Collector {
	return &Collector{peers: peers, cfg: cfg, metrics: metrics}
}

// Collect runs one fan-out and blocks until every attempt is terminal.
// It always returns a complete aggregate: per-peer errors are data, never
// a reason to abort the other attempts. An empty peer list completes
// immediately with an empty aggregate.
func (c *Collector) Collect(ctx context.Context) *Aggregate {
	agg := &Aggregate{Peers: len(c.peers)}
	if len(c.peers) == 0 {
		return agg
	}

	// Buffered so a late attempt can never block after a caller
	// abandons the run.
	results := make(chan Outcome, len(c.peers))
	for _, p := range c.peers {
		go func(p Peer) {
			results <- c.attempt(ctx, p)
		}(p)
	}

	for i := 0; i < len(c.peers); i++ {
		out := <-results
		if out.Err != nil {
			agg.Failures = append(agg.Failures, Failure{Peer: out.Peer, Err: out.Err})
			if c.metrics != nil {
				c.metrics.RecordAttempt(false)
			}
			log.Warn().Str("peer", out.Peer.Addr()).Err(out.Err).Msg("Peer attempt failed")
			continue
		}
		agg.Records = append(agg.Records, out.Records...)
		if c.metrics != nil {
			c.metrics.RecordAttempt(true)
		}
		log.Debug().Str("peer", out.Peer.Addr()).Int("records", len(out.Records)).Msg("Peer attempt succeeded")
	}

	if c.metrics != nil {
		c.metrics.RecordCollectRun()
	}
	log.Info().
		Int("peers", agg.Peers).
		Int("succeeded", agg.Succeeded()).
		Int("failed", len(agg.Failures)).
		Int("records", len(agg.Records)).
		Msg("Collect run finished")
	return agg
}
