package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/streakwatch/internal/storage"
)

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored backend session",
		Long: `Removes the stored access and refresh tokens. Detections keep being
recorded locally but are no longer synced until the popup signs in again.`,
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
			if st.Session.AccessToken == "" && st.Session.RefreshToken == "" {
				fmt.Println("No backend session stored.")
				return nil
			}

			_, err = cli.Store.Update(cmd.Context(), func(st *storage.PersistedState) error {
				st.ClearSession()
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}

			fmt.Println("Backend session cleared.")
			return nil
		},
	}
}
