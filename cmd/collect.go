package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchwire/watchwire/internal/collector"
	"github.com/watchwire/watchwire/internal/monitoring"
	"github.com/watchwire/watchwire/internal/store"
)

// runCollect performs one fan-out over all configured peers, renders the
// aggregate and optionally archives it.
func runCollect(args []string) {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	cfg := loadConfig(fs, args)

	peers := make([]collector.Peer, 0, len(cfg.Client.Peers))
	for _, p := range cfg.Client.Peers {
		peers = append(peers, collector.Peer{Host: p.Host, Port: p.Port})
	}

	metrics := monitoring.NewMetrics()
	coll := collector.New(peers, collector.Config{
		DialTimeout:    cfg.Client.DialTimeout,
		AttemptTimeout: cfg.Client.AttemptTimeout,
	}, metrics)

	tracker, err := monitoring.NewTracker(cfg.Monitoring.Telemetry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up telemetry: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := uuid.New().String()
	started := time.Now()
	agg := coll.Collect(ctx)
	elapsed := time.Since(started)

	tracker.RecordCollect(collectEvent(runID, started, elapsed, agg))

	alerts := monitoring.NewAlertManager(monitoring.New(cfg.Monitoring.Logging), cfg.Monitoring.Alerts)
	alerts.FlagSlowRun(runID, elapsed)
	for _, f := range agg.Failures {
		alerts.FlagPeerFailure(runID, f.Peer.Addr(), f.Err)
	}
	if len(agg.Records) == 0 {
		alerts.FlagEmptyRun(runID, agg.Peers)
	}

	for _, rec := range agg.Records {
		fmt.Println(rec.String())
	}
	for _, f := range agg.Failures {
		fmt.Fprintf(os.Stderr, "peer %s failed: %v\n", f.Peer.Addr(), f.Err)
	}
	fmt.Fprintf(os.Stderr, "%d/%d peers succeeded, %d records\n",
		agg.Succeeded(), agg.Peers, len(agg.Records))

	if cfg.Store.Path != "" {
		archive, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open archive")
			os.Exit(1)
		}
		defer archive.Close()

		if err := archive.SaveRun(ctx, runID, started, agg); err != nil {
			log.Error().Err(err).Str("run_id", runID).Msg("Failed to archive run")
			os.Exit(1)
		}
		log.Info().Str("run_id", runID).Msg("Run archived")
	}
}

// collectEvent flattens an aggregate into a telemetry event.
func collectEvent(runID string, started time.Time, elapsed time.Duration, agg *collector.Aggregate) *monitoring.CollectEvent {
	outcomes := make([]monitoring.PeerOutcome, 0, agg.Peers)
	for _, f := range agg.Failures {
		outcomes = append(outcomes, monitoring.PeerOutcome{
			Peer:  f.Peer.Addr(),
			OK:    false,
			Error: f.Err.Error(),
		})
	}
	// Successful peers are summarized in aggregate counts only; the wire
	// format carries no per-peer identity once records are merged.
	return &monitoring.CollectEvent{
		RunID:      runID,
		StartedAt:  started.UTC(),
		DurationMS: elapsed.Milliseconds(),
		Peers:      agg.Peers,
		Succeeded:  agg.Succeeded(),
		Failed:     len(agg.Failures),
		Records:    len(agg.Records),
		Outcomes:   outcomes,
	}
}

// runRuns lists archived collect runs.
func runRuns(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	cfg := loadConfig(fs, args)

	if cfg.Store.Path == "" {
		fmt.Fprintln(os.Stderr, "No archive configured (store.path is empty)")
		os.Exit(1)
	}

	archive, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open archive: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	runs, err := archive.Runs(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list runs: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  peers=%d ok=%d failed=%d records=%d\n",
			r.RunID, r.CollectedAt.Format(time.RFC3339), r.Peers, r.Succeeded, r.Failed, r.Records)
	}
}
