package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bnema/streakwatch/internal/config"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage streakwatch configuration",
		Long:  `Open the configuration file in your editor or print its path.`,
		RunE:  openConfig,
	}

	cmd.Flags().Bool("path", false, "Print the full path of the config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Regenerate the JSON schema next to the config file",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := config.GenerateSchemaFile(); err != nil {
				return fmt.Errorf("failed to generate schema: %w", err)
			}
			configDir, err := config.GetConfigDir()
			if err != nil {
				return fmt.Errorf("failed to get config directory: %w", err)
			}
			fmt.Println(filepath.Join(configDir, "config.schema.json"))
			return nil
		},
	})

	return cmd
}

// openConfig opens the config file in the user's editor or prints its path.
func openConfig(cmd *cobra.Command, _ []string) error {
	configPath, err := config.GetConfigFile()
	if err != nil {
		return fmt.Errorf("failed to get config file path: %w", err)
	}

	printPath, _ := cmd.Flags().GetBool("path")
	if printPath {
		fmt.Println(configPath)
		return nil
	}

	// Prefer $VISUAL, fall back to $EDITOR
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		return fmt.Errorf("no editor defined: set $VISUAL or $EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}

	return nil
}
