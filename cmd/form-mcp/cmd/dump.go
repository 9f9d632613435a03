package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// dumpCmd represents the dump command.
var dumpCmd = &cobra.Command{
	Use:   "dump [image]",
	Short: "Write every recognized line of an image as JSON",
	Long: `OCR a whole image and write the full text plus each line and word with
its bounding box and confidence. Useful for finding field positions by hand.

Examples:
  form-mcp dump scan.jpg
  form-mcp dump scan.jpg --lang eng+hin -o lines.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		language := cfg.Bootstrap.Language
		if cmd.Flags().Changed("lang") {
			language, _ = cmd.Flags().GetString("lang")
		}
		output, _ := cmd.Flags().GetString("output")

		rec, err := newRecognizer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize OCR: %w", err)
		}
		defer func() { _ = rec.Close() }()

		res, err := rec.ExtractText(cmd.Context(), args[0], language)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), output, res, cfg.Output.Pretty)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().String("lang", "eng", "Tesseract language code")
	dumpCmd.Flags().StringP("output", "o", "", "write the JSON to a file instead of stdout")
}
