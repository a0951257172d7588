package main

import (
	"fmt"
	"os"

	"github.com/bnema/streakwatch/internal/cli"
	"github.com/bnema/streakwatch/internal/config"
	"github.com/bnema/streakwatch/internal/logging"
)

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := config.Get().Logging
	logging.SetGlobal(logging.NewFromSettings(logCfg.Level, logCfg.Format, logCfg.Filename))

	rootCmd := cli.NewRootCmd(version, commit, buildDate)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
