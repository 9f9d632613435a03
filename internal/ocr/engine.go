package ocr

import (
	"context"
	"errors"
	"image"
	"strings"
)

// ErrOCRUnavailable is returned when the binary was built without cgo and
// therefore without the Tesseract bindings.
var ErrOCRUnavailable = errors.New("ocr: tesseract support not compiled in (build with CGO_ENABLED=1)")

// PageSegMode mirrors Tesseract's page segmentation modes.
type PageSegMode int

const (
	PSMOSDOnly             PageSegMode = 0  // Orientation and script detection only
	PSMAutoOSD             PageSegMode = 1  // Automatic with OSD
	PSMAutoOnly            PageSegMode = 2  // Automatic, no OSD or OCR
	PSMAuto                PageSegMode = 3  // Fully automatic (default)
	PSMSingleColumn        PageSegMode = 4  // Single column of variable sizes
	PSMSingleBlockVertText PageSegMode = 5  // Single uniform block of vertically aligned text
	PSMSingleBlock         PageSegMode = 6  // Single uniform block of text
	PSMSingleLine          PageSegMode = 7  // Single text line
	PSMSingleWord          PageSegMode = 8  // Single word
	PSMCircleWord          PageSegMode = 9  // Single word in a circle
	PSMSingleChar          PageSegMode = 10 // Single character
	PSMSparseText          PageSegMode = 11 // Find as much text as possible
	PSMSparseTextOSD       PageSegMode = 12 // Sparse text with OSD
	PSMRawLine             PageSegMode = 13 // Treat image as single text line
)

const (
	maxPageSegMode  = PSMRawLine
	defaultLanguage = "eng"
	confidenceScale = 100.0
)

// Valid reports whether m is one of Tesseract's modes.
func (m PageSegMode) Valid() bool {
	return m >= PSMOSDOnly && m <= maxPageSegMode
}

// Hint tells the engine how to read a region.
type Hint struct {
	Language string
	PSM      PageSegMode
}

// Candidate is one reading of a region. Confidence is in [0,1].
type Candidate struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Engine recognizes text in a conditioned region. Implementations must not
// retain region after returning.
type Engine interface {
	Recognize(ctx context.Context, region image.Image, hint Hint) ([]Candidate, error)
}

// EngineFunc adapts an ordinary function to the Engine interface.
type EngineFunc func(ctx context.Context, region image.Image, hint Hint) ([]Candidate, error)

// Recognize calls f(ctx, region, hint).
func (f EngineFunc) Recognize(ctx context.Context, region image.Image, hint Hint) ([]Candidate, error) {
	return f(ctx, region, hint)
}

// Best runs engine on region and returns the highest-confidence candidate
// whose text is not blank. Ties keep the earlier candidate. The boolean is
// false when there is no usable reading.
func Best(ctx context.Context, engine Engine, region image.Image, hint Hint) (Candidate, bool, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, false, err
	}
	candidates, err := engine.Recognize(ctx, region, hint)
	if err != nil {
		return Candidate{}, false, err
	}

	var best Candidate
	found := false
	for _, c := range candidates {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		if !found || c.Confidence > best.Confidence {
			best = c
			found = true
		}
	}
	return best, found, nil
}

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// BoundsFromRect converts an image.Rectangle.
func BoundsFromRect(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Rect converts b back to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// TextRegion is a line or word with its location and OCR confidence.
type TextRegion struct {
	// Text is the recognized text content.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this text in the image.
	Bounds Bounds `json:"bounds"`
}

// OCRResult contains the results of whole-image text extraction.
type OCRResult struct {
	// FullText is all recognized text with original spacing/newlines.
	FullText string `json:"full_text"`

	// Lines holds one entry per recognized text line, top to bottom.
	Lines []TextRegion `json:"lines"`

	// Words may be empty if word-level boxes are unavailable.
	Words []TextRegion `json:"words"`
}

// OCRInfo contains information about the OCR subsystem.
type OCRInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
	Backend   string `json:"backend"`
}

// TesseractConfig configures the Tesseract engine.
type TesseractConfig struct {
	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string
}

func languageOrDefault(lang string) string {
	if lang = strings.TrimSpace(lang); lang == "" {
		return defaultLanguage
	}
	return lang
}

func toRegions(texts []string, confs []float64, rects []image.Rectangle) []TextRegion {
	regions := make([]TextRegion, 0, len(texts))
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       text,
			Confidence: confs[i],
			Bounds:     BoundsFromRect(rects[i]),
		})
	}
	return regions
}
