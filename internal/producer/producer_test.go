package producer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchwire/watchwire/internal/journal"
	"github.com/watchwire/watchwire/internal/producer"
	"github.com/watchwire/watchwire/internal/record"
)

// boundedSource emits n records, then blocks until cancelled.
func boundedSource(n int) producer.SourceFunc {
	count := 0
	return func(ctx context.Context) (record.Record, error) {
		if count >= n {
			<-ctx.Done()
			return record.Record{}, ctx.Err()
		}
		count++
		return record.Record{ObservedAt: "t1", Category: "peugeot", Attribute: "red"}, nil
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestProducer_AppendsFromSource(t *testing.T) {
	j := journal.New()
	p := producer.New(boundedSource(3), j, producer.Config{})

	p.Start()
	waitFor(t, func() bool { return j.Len() == 3 })
	p.Stop()

	assert.Equal(t, 3, p.Appended())
	snap := j.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "peugeot", snap[0].Category)
}

func TestProducer_FatalOnSourceError(t *testing.T) {
	j := journal.New()
	calls := 0
	src := producer.SourceFunc(func(ctx context.Context) (record.Record, error) {
		calls++
		return record.Record{}, errors.New("probe unavailable")
	})

	p := producer.New(src, j, producer.Config{})
	p.Start()

	// MaxRetries of zero means the first error is terminal.
	waitFor(t, func() bool { return calls == 1 })
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, j.Len())

	p.Stop()
}

func TestProducer_BoundedRetry(t *testing.T) {
	j := journal.New()
	calls := 0
	src := producer.SourceFunc(func(ctx context.Context) (record.Record, error) {
		calls++
		if calls <= 2 {
			return record.Record{}, errors.New("transient")
		}
		if calls == 3 {
			return record.Record{ObservedAt: "t1", Category: "fiat", Attribute: "green"}, nil
		}
		<-ctx.Done()
		return record.Record{}, ctx.Err()
	})

	p := producer.New(src, j, producer.Config{MaxRetries: 3, RetryInterval: time.Millisecond})
	p.Start()

	waitFor(t, func() bool { return j.Len() >= 1 })
	p.Stop()

	assert.GreaterOrEqual(t, calls, 3)
	assert.Equal(t, "fiat", j.Snapshot()[0].Category)
}

func TestProducer_DropsInvalidRecords(t *testing.T) {
	j := journal.New()
	emitted := 0
	src := producer.SourceFunc(func(ctx context.Context) (record.Record, error) {
		emitted++
		switch emitted {
		case 1:
			return record.Record{ObservedAt: "t1", Category: "bad:category", Attribute: "red"}, nil
		case 2:
			return record.Record{ObservedAt: "t2", Category: "peugeot", Attribute: "red"}, nil
		default:
			<-ctx.Done()
			return record.Record{}, ctx.Err()
		}
	})

	p := producer.New(src, j, producer.Config{})
	p.Start()
	waitFor(t, func() bool { return j.Len() == 1 })
	p.Stop()

	assert.Equal(t, 1, p.Appended())
	assert.Equal(t, "peugeot", j.Snapshot()[0].Category)
}

// TestProducer_StopWithEagerSource uses a source that always has a record
// ready and never blocks on ctx. Stop must still return: the loop has to
// observe cancellation on the success path, not only on source errors.
func TestProducer_StopWithEagerSource(t *testing.T) {
	j := journal.New()
	src := producer.SourceFunc(func(ctx context.Context) (record.Record, error) {
		return record.Record{ObservedAt: "t", Category: "peugeot", Attribute: "red"}, nil
	})

	p := producer.New(src, j, producer.Config{})
	p.Start()
	waitFor(t, func() bool { return j.Len() > 0 })

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return: cancellation must be observed even when the source never blocks")
	}
}

func TestProducer_StartStopIdempotent(t *testing.T) {
	j := journal.New()
	p := producer.New(boundedSource(1), j, producer.Config{})

	p.Start()
	p.Start()
	waitFor(t, func() bool { return j.Len() == 1 })
	p.Stop()
	p.Stop()

	assert.Equal(t, 1, j.Len())
}

func TestSimulated_FieldInvariant(t *testing.T) {
	src := producer.NewSimulated(time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		rec, err := src.Next(ctx)
		require.NoError(t, err)
		assert.NoError(t, rec.Validate(), "simulated records must satisfy the delimiter invariant")
		assert.NotEmpty(t, rec.ObservedAt)
		assert.NotEmpty(t, rec.Category)
	}
}
