package cli

import (
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"pdfrag/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or initialize the configuration",
}

// configShowCmd prints the effective configuration after file, environment
// and flag overrides.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config file: %s\n", configPath)
		pp.ColoringEnabled = false
		_, err := pp.Fprintln(out, GetConfig())
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write the default configuration to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(args[0], config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
		return nil
	},
}

// GetConfig returns the loaded application configuration.
func GetConfig() *config.AppConfig {
	return currentConfig
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
