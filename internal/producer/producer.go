// Package producer runs the background task that feeds a journal.
//
// DESIGN: The producer owns one goroutine for the lifetime of the server.
// It blocks on an injected Source, appends each record to the journal, and
// never holds the journal lock while waiting on the source - inbound
// sessions are never serialized behind monitoring latency.
//
// A source error is fatal to the producer after the configured retries are
// exhausted. It stops the producer only; open sessions and the listener
// keep serving whatever the journal already holds.
package producer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watchwire/watchwire/internal/journal"
	"github.com/watchwire/watchwire/internal/record"
)

// Source supplies the next observation. Next blocks until a record is
// available, the context is cancelled, or the source fails.
type Source interface {
	Next(ctx context.Context) (record.Record, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (record.Record, error)

// Next calls f.
func (f SourceFunc) Next(ctx context.Context) (record.Record, error) { return f(ctx) }

// Config controls producer failure handling.
type Config struct {
	// MaxRetries is how many consecutive source errors are retried
	// before the producer gives up. 0 means the first error is fatal.
	MaxRetries int

	// RetryInterval is the pause between retries.
	RetryInterval time.Duration
}

// Producer appends records from a source to a journal in the background.
type Producer struct {
	source  Source
	journal *journal.Journal
	cfg     Config

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	appended int
}

// New creates a producer. Start must be called to begin producing.
func New(source Source, j *journal.Journal, cfg Config) *Producer {
	return &Producer{
		source:  source,
		journal: j,
		cfg:     cfg,
	}
}

// Start launches the background goroutine. Calling Start on a running
// producer is a no-op.
func (p *Producer) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	log.Info().Msg("Starting observation producer")
	p.wg.Add(1)
	go p.run(ctx)
}

// Stop cancels the background goroutine and waits for it to exit.
func (p *Producer) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	log.Info().Int("appended", p.Appended()).Msg("Observation producer stopped")
}

// Appended returns how many records this producer has written so far.
func (p *Producer) Appended() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.appended
}

func (p *Producer) run(ctx context.Context) {
	defer p.wg.Done()

	retries := 0
	for {
		// The Source contract does not force implementations to block
		// on ctx, so cancellation must be observed here too or Stop
		// would hang behind an always-ready source.
		if ctx.Err() != nil {
			return
		}

		rec, err := p.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if retries >= p.cfg.MaxRetries {
				log.Error().Err(err).Int("retries", retries).Msg("Producer source failed, giving up")
				return
			}
			retries++
			log.Warn().Err(err).Int("retry", retries).Msg("Producer source failed, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.RetryInterval):
			}
			continue
		}
		retries = 0

		if err := p.journal.Append(rec); err != nil {
			// The source handed us a record violating the field
			// invariant. Skip it rather than poison the wire.
			log.Warn().Err(err).Str("record", rec.String()).Msg("Dropping invalid record")
			continue
		}

		p.mu.Lock()
		p.appended++
		p.mu.Unlock()
		log.Debug().Str("record", rec.String()).Msg("Record appended")
	}
}
