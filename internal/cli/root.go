// Package cli provides the command-line interface for streakwatch.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/streakwatch/internal/config"
	"github.com/bnema/streakwatch/internal/storage"
)

// CLI holds the open store and configuration shared by the commands.
type CLI struct {
	Store  *storage.SQLiteStore
	Config *config.Config
}

// NewCLI opens the state database at the configured path.
func NewCLI() (*CLI, error) {
	cfg := config.Get()

	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = config.GetDatabaseFile()
		if err != nil {
			return nil, fmt.Errorf("failed to get database path: %w", err)
		}
	}

	store, err := storage.Open(dbPath, storage.WithQueryTimeout(cfg.Database.QueryTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	return &CLI{Store: store, Config: cfg}, nil
}

// Close closes the state database.
func (c *CLI) Close() error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}

// closeCLI is the shared deferred-close helper for commands.
func closeCLI(c *CLI) {
	if err := c.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}

// NewRootCmd creates the root command for streakwatch.
func NewRootCmd(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "streakwatch",
		Short: "Clean-streak companion daemon for the browser extension",
		Long: `streakwatch is the native-messaging host behind the clean-streak browser
extension: it classifies navigation events, tracks the streak, keeps the
blocking ruleset installed and syncs detections to the backend.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("streakwatch %s\n", version)
			fmt.Printf("commit: %s\n", commit)
			fmt.Printf("built: %s\n", buildDate)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(NewHostCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewSitesCmd())
	rootCmd.AddCommand(NewResetCmd())
	rootCmd.AddCommand(NewLogoutCmd())
	rootCmd.AddCommand(NewExportRulesCmd())
	rootCmd.AddCommand(NewDashboardCmd())
	rootCmd.AddCommand(NewConfigCmd())

	return rootCmd
}
