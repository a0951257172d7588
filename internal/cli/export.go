package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/streakwatch/internal/classify"
	"github.com/bnema/streakwatch/internal/config"
	"github.com/bnema/streakwatch/internal/rules"
)

// NewExportRulesCmd creates the export-rules command.
func NewExportRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-rules",
		Short: "Write the compiled blocking ruleset to a JSON file",
		Long: `Compiles the blocking ruleset from the built-in keywords, the configured
extra keywords and the stored custom sites, and writes it as declarative
net request JSON. Rules outside the reserved id ranges already present in
the file are preserved.`,
		RunE: func(c *cobra.Command, _ []string) error {
			cli, err := NewCLI()
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer closeCLI(cli)

			path, _ := c.Flags().GetString("output")
			if path == "" {
				path = cli.Config.Blocking.RuleExportPath
			}
			if path == "" {
				path, err = config.GetRuleExportFile()
				if err != nil {
					return fmt.Errorf("failed to get export path: %w", err)
				}
			}

			st, err := cli.Store.Load(c.Context())
			if err != nil {
				return fmt.Errorf("failed to load state: %w", err)
			}

			compiler := rules.NewCompiler(classify.New(cli.Config.Blocking.ExtraKeywords))
			compiled := compiler.Compile(st.CustomSites)

			engine := rules.NewFileEngine(path)
			if err := rules.Reconcile(c.Context(), engine, compiled); err != nil {
				return fmt.Errorf("failed to write ruleset: %w", err)
			}

			fmt.Printf("Wrote %d rule(s) to %s\n", len(compiled), path)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file (defaults to the configured export path)")
	return cmd
}
