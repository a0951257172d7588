package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/streakwatch/internal/app"
	"github.com/bnema/streakwatch/internal/config"
	"github.com/bnema/streakwatch/internal/logging"
)

// NewHostCmd creates the host command, the entry point the browser launches
// as the native-messaging host.
func NewHostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Run the native-messaging daemon on stdin/stdout",
		Long: `Runs the native-messaging daemon. The browser launches this process and
owns its stdin/stdout; all logging goes to stderr and the log file. The
daemon exits when the extension port closes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, err := NewCLI()
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer closeCLI(cli)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			daemon := app.NewDaemon(cli.Config, cli.Store, os.Stdin, os.Stdout)

			config.OnConfigChange(func(cfg *config.Config) {
				daemon.ApplyConfig(ctx, cfg)
			})
			if err := config.Watch(); err != nil {
				logging.Warn(fmt.Sprintf("config watching unavailable: %v", err))
			}

			logging.Info("native-messaging host started")
			return daemon.Run(ctx)
		},
	}
}
