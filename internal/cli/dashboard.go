package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/streakwatch/internal/cli/model"
	"github.com/bnema/streakwatch/internal/cli/styles"
)

// NewDashboardCmd creates the dashboard command.
func NewDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive streak dashboard",
		Long:  `Shows the streak summary, a calendar of detection days and the custom blocked site list.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cli, err := NewCLI()
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer closeCLI(cli)

			theme := styles.NewTheme()
			m := model.NewDashboardModel(theme, cli.Store)

			p := tea.NewProgram(m, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("dashboard failed: %w", err)
			}
			return nil
		},
	}
}
