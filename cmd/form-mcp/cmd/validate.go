package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/form-tools-mcp/internal/template"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate [template...]",
	Short: "Check that templates parse and are consistent",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			tpl, err := template.Load(path)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s, %d fields)\n", path, tpl.FormName, len(tpl.Fields))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d templates invalid", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
