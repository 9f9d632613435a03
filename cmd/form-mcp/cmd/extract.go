package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ironsheep/form-tools-mcp/internal/extract"
	"github.com/ironsheep/form-tools-mcp/internal/imaging"
)

// extractCmd represents the extract command.
var extractCmd = &cobra.Command{
	Use:   "extract [image]",
	Short: "Extract form fields from a scanned image",
	Long: `Run a template against a scanned form and write the extraction as JSON.

Accepted fields appear under "fields", rejected ones under "rejected" with
reason_if_rejected set to NO_READING, LOW_CONFIDENCE, TOO_SHORT,
INVALID_BBOX, REGION_TOO_SMALL or RECOGNITION_FAILED. A run where no field
is accepted still succeeds.

Examples:
  form-mcp extract --template business_front.json scan.jpg
  form-mcp extract -t form.yaml --lang hin --threshold 0.8 scan.png -o result.json
  form-mcp extract -t form.json --overlay boxes.png scan.tif`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		imagePath := args[0]

		templatePath, _ := cmd.Flags().GetString("template")

		language := cfg.Extract.Language
		if cmd.Flags().Changed("lang") {
			language, _ = cmd.Flags().GetString("lang")
		}

		threshold := cfg.Extract.ConfidenceThreshold
		if cmd.Flags().Changed("threshold") {
			t, _ := cmd.Flags().GetFloat64("threshold")
			if t < 0 || t > 1 {
				return fmt.Errorf("invalid threshold %v (must be between 0.0 and 1.0)", t)
			}
			threshold = &t
		}

		workers := cfg.Extract.Workers
		if cmd.Flags().Changed("workers") {
			workers, _ = cmd.Flags().GetInt("workers")
		}

		page := cfg.Extract.Page
		if cmd.Flags().Changed("page") {
			page, _ = cmd.Flags().GetInt("page")
		}

		segmentGrids := cfg.Extract.SegmentGrids
		if cmd.Flags().Changed("segment-grids") {
			segmentGrids, _ = cmd.Flags().GetBool("segment-grids")
		}

		outputFile := cfg.Output.File
		if cmd.Flags().Changed("output") {
			outputFile, _ = cmd.Flags().GetString("output")
		}

		overlay := cfg.Output.Overlay
		if cmd.Flags().Changed("overlay") {
			overlay, _ = cmd.Flags().GetString("overlay")
		}

		pretty := cfg.Output.Pretty
		if cmd.Flags().Changed("pretty") {
			pretty, _ = cmd.Flags().GetBool("pretty")
		}

		rec, err := newRecognizer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize OCR: %w", err)
		}
		defer func() { _ = rec.Close() }()

		cache := imaging.NewImageCache()
		engine := extract.New(rec,
			extract.WithWorkers(workers),
			extract.WithLogger(slog.Default()),
			extract.WithGridSegmentation(segmentGrids),
			extract.WithPage(page),
			extract.WithImageLoader(cache.Load),
		)

		ext, err := engine.Run(cmd.Context(), extract.Request{
			ImagePath:           imagePath,
			TemplatePath:        templatePath,
			LanguageHint:        language,
			ConfidenceThreshold: threshold,
		})
		if err != nil {
			return err
		}

		if err := writeJSON(cmd.OutOrStdout(), outputFile, ext, pretty); err != nil {
			return err
		}

		if overlay != "" {
			img, err := cache.Load(imagePath)
			if err != nil {
				return err
			}
			if err := imaging.SaveOverlay(overlay, imaging.RenderOverlay(img, extract.OverlayBoxes(ext))); err != nil {
				return fmt.Errorf("failed to save overlay: %w", err)
			}
			slog.Info("overlay written", "path", overlay)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("template", "t", "", "template file (.json, .yaml or .yml)")
	extractCmd.Flags().String("lang", "", "Tesseract language for fields without ocr.lang (e.g. eng, hin, eng+nep)")
	extractCmd.Flags().Float64("threshold", extract.DefaultConfidenceThreshold, "confidence threshold for fields without conf_required")
	extractCmd.Flags().Int("workers", 1, "fields recognized concurrently")
	extractCmd.Flags().Int("page", 1, "template page to extract")
	extractCmd.Flags().Bool("segment-grids", false, "read box_grid fields cell by cell")
	extractCmd.Flags().StringP("output", "o", "", "write the JSON result to a file instead of stdout")
	extractCmd.Flags().String("overlay", "", "save an image with the resolved boxes drawn on the scan")
	extractCmd.Flags().Bool("pretty", true, "indent the JSON output")

	_ = extractCmd.MarkFlagRequired("template")
}
