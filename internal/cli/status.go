package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/streakwatch/internal/streak"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current streak summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, err := NewCLI()
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer closeCLI(cli)

			st, err := cli.Store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load state: %w", err)
			}

			today := streak.Today(time.Now())
			sum := streak.ComputeStreak(st, today)

			if sum.StreakDays == nil {
				fmt.Println("No detection recorded yet.")
			} else {
				fmt.Printf("Clean streak: %d day(s)\n", *sum.StreakDays)
				fmt.Printf("Last detection: %s\n", sum.LastVisitDate)
			}
			fmt.Printf("Custom blocked sites: %d\n", len(st.CustomSites))
			fmt.Printf("Recorded detection days: %d\n", len(st.VisitHistory))
			return nil
		},
	}
}
