package server_test

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchwire/watchwire/internal/collector"
	"github.com/watchwire/watchwire/internal/journal"
	"github.com/watchwire/watchwire/internal/producer"
	"github.com/watchwire/watchwire/internal/record"
)

func peerFor(t *testing.T, addr net.Addr) collector.Peer {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr.String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return collector.Peer{Host: host, Port: port}
}

// Scenario A: one server holding one record; the client collects exactly
// that record with zero failures.
func TestEndToEnd_SingleServer(t *testing.T) {
	j := journal.New()
	require.NoError(t, j.Append(record.Record{ObservedAt: "t1", Category: "peugeot", Attribute: "red"}))
	addr := startServer(t, j, nil)

	coll := collector.New([]collector.Peer{peerFor(t, addr)}, collector.Config{}, nil)
	agg := coll.Collect(context.Background())

	require.Len(t, agg.Records, 1)
	assert.Equal(t, record.Record{ObservedAt: "t1", Category: "peugeot", Attribute: "red"}, agg.Records[0])
	assert.Empty(t, agg.Failures)
}

// Scenario B: one reachable server plus one refusing connections; the
// aggregate carries the reachable server's records and exactly one
// connection failure.
func TestEndToEnd_OneServerDown(t *testing.T) {
	j := journal.New()
	require.NoError(t, j.Append(record.Record{ObservedAt: "t1", Category: "peugeot", Attribute: "red"}))
	up := startServer(t, j, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	down := peerFor(t, ln.Addr())
	require.NoError(t, ln.Close())

	coll := collector.New([]collector.Peer{peerFor(t, up), down}, collector.Config{
		DialTimeout: time.Second,
	}, nil)
	agg := coll.Collect(context.Background())

	require.Len(t, agg.Records, 1)
	assert.Equal(t, "peugeot", agg.Records[0].Category)
	require.Len(t, agg.Failures, 1)
	assert.ErrorIs(t, agg.Failures[0].Err, collector.ErrConnection)
}

// Scenario C: a server with zero records; the client decodes the empty
// stream as a successful, empty attempt.
func TestEndToEnd_EmptyServer(t *testing.T) {
	addr := startServer(t, journal.New(), nil)

	coll := collector.New([]collector.Peer{peerFor(t, addr)}, collector.Config{}, nil)
	agg := coll.Collect(context.Background())

	assert.Equal(t, 1, agg.Peers)
	assert.Empty(t, agg.Records)
	assert.Empty(t, agg.Failures)
}

// Full pipeline: producer feeding the journal while the client collects.
func TestEndToEnd_WithProducer(t *testing.T) {
	j := journal.New()
	emitted := 0
	src := producer.SourceFunc(func(ctx context.Context) (record.Record, error) {
		if emitted >= 5 {
			<-ctx.Done()
			return record.Record{}, ctx.Err()
		}
		emitted++
		return record.Record{
			ObservedAt: "t" + strconv.Itoa(emitted),
			Category:   "peugeot",
			Attribute:  "red",
		}, nil
	})

	prod := producer.New(src, j, producer.Config{})
	prod.Start()
	defer prod.Stop()

	deadline := time.After(2 * time.Second)
	for j.Len() < 5 {
		select {
		case <-deadline:
			t.Fatal("producer did not fill the journal in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	addr := startServer(t, j, nil)
	coll := collector.New([]collector.Peer{peerFor(t, addr)}, collector.Config{}, nil)
	agg := coll.Collect(context.Background())

	assert.Empty(t, agg.Failures)
	require.Len(t, agg.Records, 5)
	for i, rec := range agg.Records {
		assert.Equal(t, "t"+strconv.Itoa(i+1), rec.ObservedAt)
	}
}
