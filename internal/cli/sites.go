package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/streakwatch/internal/classify"
	"github.com/bnema/streakwatch/internal/storage"
)

// NewSitesCmd creates the sites command group.
func NewSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Manage the custom blocked site list",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List custom blocked sites",
		RunE: func(c *cobra.Command, _ []string) error {
			cli, err := NewCLI()
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer closeCLI(cli)

			st, err := cli.Store.Load(c.Context())
			if err != nil {
				return fmt.Errorf("failed to load state: %w", err)
			}
			if len(st.CustomSites) == 0 {
				fmt.Println("No custom sites.")
				return nil
			}
			for _, site := range st.CustomSites {
				fmt.Println(site)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <domain>",
		Short: "Add a custom blocked site",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			domain := classify.NormalizeDomain(args[0])
			if domain == "" {
				return fmt.Errorf("invalid domain %q", args[0])
			}

			cli, err := NewCLI()
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer closeCLI(cli)

			st, err := cli.Store.Update(c.Context(), func(st *storage.PersistedState) error {
				st.AddCustomSite(domain)
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to save site: %w", err)
			}

			fmt.Printf("Added %s (%d site(s) total)\n", domain, len(st.CustomSites))
			fmt.Println("The browser ruleset updates the next time the extension connects.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <domain>",
		Short: "Remove a custom blocked site",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			domain := classify.NormalizeDomain(args[0])
			if domain == "" {
				return fmt.Errorf("invalid domain %q", args[0])
			}

			cli, err := NewCLI()
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer closeCLI(cli)

			st, err := cli.Store.Update(c.Context(), func(st *storage.PersistedState) error {
				if !st.HasCustomSite(domain) {
					return fmt.Errorf("%s is not in the custom site list", domain)
				}
				st.RemoveCustomSite(domain)
				return nil
			})
			if err != nil {
				return err
			}

			fmt.Printf("Removed %s (%d site(s) left)\n", domain, len(st.CustomSites))
			return nil
		},
	})

	return cmd
}
