package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/streakwatch/internal/storage"
	"github.com/bnema/streakwatch/internal/streak"
)

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restart the streak from today",
		Long: `Marks today as the last detection date so the streak counts from zero.
No notification is raised and nothing is sent to the backend.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, err := NewCLI()
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer closeCLI(cli)

			today := streak.Today(time.Now())
			_, err = cli.Store.Update(cmd.Context(), func(st *storage.PersistedState) error {
				streak.RecordDetection(st, today)
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to reset streak: %w", err)
			}

			fmt.Printf("Streak reset; counting from %s.\n", today)
			return nil
		},
	}
}
