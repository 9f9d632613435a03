package template

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/ironsheep/form-tools-mcp/internal/ocr"
)

// Detection is one text line found by whole-page OCR.
type Detection struct {
	Text       string
	Confidence float64
	Bounds     image.Rectangle
}

// BootstrapOptions configures Bootstrap.
type BootstrapOptions struct {
	// DPI of the scanned page, used for the derived millimetre boxes.
	// Defaults to 300.
	DPI int
	// Language recorded on the template and on every field. Defaults to "eng".
	Language string
	// PSM recorded on every field. Defaults to 7 (single text line).
	PSM int
	// ImagePath is recorded in the template metadata.
	ImagePath string
}

// ErrNoText is returned by Bootstrap when no detection carries any text.
// A template needs at least one field to load.
var ErrNoText = errors.New("no text detected")

// BootstrapVersion is the version string stamped on generated templates.
const BootstrapVersion = "auto-1.0"

// Bootstrap builds a draft template with one text_line field per detection,
// in detection order. Fields get sequential ids (f001, f002, ...), the
// trimmed text as name and label, the pixel box, and a millimetre box derived
// from the DPI and rounded to two decimals. Blank detections are skipped;
// when nothing remains the error matches ErrNoText.
func Bootstrap(formName string, detections []Detection, opts BootstrapOptions) (*Template, error) {
	if opts.DPI == 0 {
		opts.DPI = 300
	}
	if opts.DPI < 0 {
		return nil, fmt.Errorf("invalid dpi %d", opts.DPI)
	}
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.PSM == 0 {
		opts.PSM = 7
	}

	mmPerPixel := 25.4 / float64(opts.DPI)

	tpl := &Template{
		FormName: formName,
		Version:  BootstrapVersion,
		Metadata: Metadata{
			DPI:       opts.DPI,
			Language:  opts.Language,
			ImagePath: opts.ImagePath,
		},
		Fields: make([]Field, 0, len(detections)),
	}

	for _, d := range detections {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}

		r := d.Bounds.Canon()
		x, y, w, h := r.Min.X, r.Min.Y, r.Dx(), r.Dy()
		conf := d.Confidence

		tpl.Fields = append(tpl.Fields, Field{
			ID:    fmt.Sprintf("f%03d", len(tpl.Fields)+1),
			Name:  text,
			Label: text,
			Type:  TypeTextLine,
			Page:  1,
			BBox: BBox{
				PX: []int{x, y, w, h},
				MM: []float64{
					round2(float64(x) * mmPerPixel),
					round2(float64(y) * mmPerPixel),
					round2(float64(w) * mmPerPixel),
					round2(float64(h) * mmPerPixel),
				},
			},
			OCR:  OCRConfig{Lang: opts.Language, PSM: opts.PSM},
			Conf: &conf,
		})
	}

	if len(tpl.Fields) == 0 {
		return nil, fmt.Errorf("%w in %d detections", ErrNoText, len(detections))
	}
	return tpl, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DetectionsFromLines converts whole-page OCR lines into bootstrap input.
func DetectionsFromLines(lines []ocr.TextRegion) []Detection {
	out := make([]Detection, 0, len(lines))
	for _, l := range lines {
		out = append(out, Detection{Text: l.Text, Confidence: l.Confidence, Bounds: l.Bounds.Rect()})
	}
	return out
}
