package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/form-tools-mcp/internal/ocr"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// SetVersionInfo records build information set by ldflags in main.
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// versionCmd represents the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and OCR backend information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "form-mcp %s\n", version)
		fmt.Fprintf(out, "  Build time: %s\n", date)
		fmt.Fprintf(out, "  Git commit: %s\n", commit)

		info := ocr.Info()
		if info.Available {
			fmt.Fprintf(out, "  OCR: %s %s\n", info.Backend, info.Version)
		} else {
			fmt.Fprintf(out, "  OCR: unavailable (%s)\n", info.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
