package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxpilot/voxpilot/internal/config"
	"github.com/voxpilot/voxpilot/internal/observability"
	"github.com/voxpilot/voxpilot/internal/output"
	"github.com/voxpilot/voxpilot/internal/platform"
	"github.com/voxpilot/voxpilot/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "voxpilot",
	Short: "Voice-driven desktop automation agent",
	Long: "Voxpilot turns natural-language commands into desktop GUI actions via the\n" +
		"OS accessibility layer, escalating to vision-model screen analysis when the\n" +
		"accessibility tree cannot resolve the target.",
}

// cfg is loaded once in the persistent pre-run and shared by all subcommands.
var cfg *config.Config

func Execute() {
	defer observability.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: built-in defaults plus VOXPILOT_* env)")
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		platform.RequestPermissions()

		path, _ := rootCmd.PersistentFlags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = c
		observability.Initialize(c.Logger)

		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := parseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")
		return nil
	}
}

func parseFormat(s string) (output.Format, error) {
	switch s {
	case "yaml", "":
		return output.FormatYAML, nil
	case "json":
		return output.FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use yaml or json)", s)
	}
}
