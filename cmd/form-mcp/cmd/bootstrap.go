package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ironsheep/form-tools-mcp/internal/imaging"
	"github.com/ironsheep/form-tools-mcp/internal/template"
)

// bootstrapCmd represents the bootstrap command.
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap [image]",
	Short: "Draft a template from a sample scan",
	Long: `OCR a whole sample form once and write a draft template with one
text_line field per recognized line. Field ids run f001, f002, ... and each
field gets both a pixel box and a millimetre box derived from --dpi.

The draft is a starting point: rename fields, drop the static labels and
add validate rules before using it for extraction.

Examples:
  form-mcp bootstrap sample.jpg
  form-mcp bootstrap sample.jpg --dpi 200 --lang hin -o template.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		imagePath := args[0]

		dpi := cfg.Bootstrap.DPI
		if cmd.Flags().Changed("dpi") {
			dpi, _ = cmd.Flags().GetInt("dpi")
		}
		if dpi <= 0 {
			return fmt.Errorf("invalid dpi %d (must be positive)", dpi)
		}

		language := cfg.Bootstrap.Language
		if cmd.Flags().Changed("lang") {
			language, _ = cmd.Flags().GetString("lang")
		}

		formName, _ := cmd.Flags().GetString("form-name")
		if formName == "" {
			formName = filepath.Base(imagePath)
		}
		output, _ := cmd.Flags().GetString("output")

		img, err := imaging.Load(imagePath)
		if err != nil {
			return err
		}

		rec, err := newRecognizer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize OCR: %w", err)
		}
		defer func() { _ = rec.Close() }()

		res, err := rec.ExtractLines(cmd.Context(), img, language)
		if err != nil {
			return fmt.Errorf("ocr failed: %w", err)
		}

		tpl, err := template.Bootstrap(formName, template.DetectionsFromLines(res.Lines), template.BootstrapOptions{
			DPI:       dpi,
			Language:  language,
			ImagePath: imagePath,
		})
		if err != nil {
			return err
		}

		if output == "" {
			return writeJSON(cmd.OutOrStdout(), "", tpl, true)
		}
		if err := template.Save(output, tpl); err != nil {
			return err
		}
		slog.Info("template written", "path", output, "fields", len(tpl.Fields))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)

	bootstrapCmd.Flags().Int("dpi", 300, "scan resolution used for millimetre boxes")
	bootstrapCmd.Flags().String("lang", "eng", "Tesseract language code")
	bootstrapCmd.Flags().String("form-name", "", "form name recorded on the template (default: image file name)")
	bootstrapCmd.Flags().StringP("output", "o", "", "template file to write (.json, .yaml or .yml); stdout if omitted")
}
