// Package main is the entry point for watchwire.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Version is the release version, overridable at build time via
// -ldflags "-X main.Version=...".
var Version = "0.3.0"

// loadEnvFiles loads .env from standard locations.
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	configEnv := filepath.Join(homeDir, ".config", "watchwire", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Also load local .env (can override)
	_ = godotenv.Load()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve", "start":
			runServe(os.Args[2:])
			return
		case "collect":
			runCollect(os.Args[2:])
			return
		case "runs":
			runRuns(os.Args[2:])
			return
		case "version", "-v", "--version":
			fmt.Printf("watchwire %s\n", Version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	printHelp()
	os.Exit(2)
}

func printHelp() {
	fmt.Print(`watchwire - distributed observation collection

Usage:
  watchwire serve   [--config path] [--debug]   run an observation server
  watchwire collect [--config path] [--debug]   fan out to all peers once
  watchwire runs    [--config path]             list archived collect runs
  watchwire version                             print the version
  watchwire help                                show this help

The config file defaults to configs/watchwire.yaml. Values support
${VAR:-default} environment expansion.
`)
}
