package extract

import (
	"image"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/ironsheep/form-tools-mcp/internal/ocr"
	"github.com/ironsheep/form-tools-mcp/internal/template"
)

const (
	// DefaultConfidenceThreshold is the minimum confidence for fields with
	// no conf_required when the run sets no threshold either. A reading at
	// exactly the threshold is accepted.
	DefaultConfidenceThreshold = 0.7
	// DefaultMinLen is the minimum normalized length, in characters, for
	// fields without validate.min_len.
	DefaultMinLen = 2

	// SmallBoxThreshold marks a field as box_grid when both resolved sides
	// are below it.
	SmallBoxThreshold = 50
)

// Policy decides whether a reading is accepted.
type Policy struct {
	// ConfidenceThreshold applies to fields without conf_required. Nil means
	// DefaultConfidenceThreshold.
	ConfidenceThreshold *float64
}

// Decision is the outcome of Policy.Evaluate.
type Decision struct {
	Text       string
	Confidence float64
	FieldType  template.FieldType
	Accepted   bool
	Reason     Reason
}

// Threshold returns the confidence a reading of field must reach.
func (p Policy) Threshold(field template.Field) float64 {
	if field.ConfRequired != nil {
		return *field.ConfRequired
	}
	if p.ConfidenceThreshold != nil {
		return *p.ConfidenceThreshold
	}
	return DefaultConfidenceThreshold
}

// Evaluate applies the acceptance rules in order: a reading must exist and
// reach the threshold, its normalized text must be at least min_len runes
// long. The field type is classified whatever the outcome.
func (p Policy) Evaluate(reading ocr.Candidate, ok bool, field template.Field, rect image.Rectangle) Decision {
	d := Decision{FieldType: ClassifyType(field, rect)}
	if !ok {
		d.Reason = ReasonNoReading
		return d
	}

	d.Text = Normalize(reading.Text)
	d.Confidence = reading.Confidence
	if reading.Confidence < p.Threshold(field) {
		d.Reason = ReasonLowConfidence
		return d
	}

	minLen := DefaultMinLen
	if field.Validate.MinLen != nil {
		minLen = *field.Validate.MinLen
	}
	if utf8.RuneCountInString(d.Text) < minLen {
		d.Reason = ReasonTooShort
		return d
	}

	d.Accepted = true
	return d
}

// Normalize trims surrounding whitespace and composes to NFC so the same
// text from different scans compares equal.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ClassifyType returns box_grid for declared grid fields and for small
// resolved boxes; everything else is a text line.
func ClassifyType(field template.Field, rect image.Rectangle) template.FieldType {
	if field.Type == template.TypeBoxGrid {
		return template.TypeBoxGrid
	}
	if rect.Dx() < SmallBoxThreshold && rect.Dy() < SmallBoxThreshold {
		return template.TypeBoxGrid
	}
	return template.TypeTextLine
}
