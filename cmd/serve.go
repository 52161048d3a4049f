package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watchwire/watchwire/internal/config"
	"github.com/watchwire/watchwire/internal/journal"
	"github.com/watchwire/watchwire/internal/monitoring"
	"github.com/watchwire/watchwire/internal/producer"
	"github.com/watchwire/watchwire/internal/server"
)

const defaultConfigPath = "configs/watchwire.yaml"

// loadConfig handles the flag/env/log plumbing shared by all subcommands.
func loadConfig(fs *flag.FlagSet, args []string) *config.Config {
	configPath := fs.String("config", defaultConfigPath, "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	loadEnvFiles()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := cfg.Monitoring.Logging
	if *debug {
		logCfg.Level = "debug"
	}
	monitoring.Global(logCfg)

	return cfg
}

// runServe starts the observation server with its background producer.
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg := loadConfig(fs, args)

	interval := cfg.Producer.Interval
	if interval <= 0 {
		interval = time.Second
	}

	metrics := monitoring.NewMetrics()
	j := journal.New()

	prod := producer.New(producer.NewSimulated(interval), j, producer.Config{
		MaxRetries:    cfg.Producer.MaxRetries,
		RetryInterval: cfg.Producer.RetryInterval,
	})
	prod.Start()
	defer prod.Stop()

	srv := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, j, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}

	stats := metrics.Stats()
	log.Info().
		Int64("sessions", stats["sessions"]).
		Int64("records_sent", stats["records_sent"]).
		Msg("Shutdown complete")
}
