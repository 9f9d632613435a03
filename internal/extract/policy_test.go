package extract

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironsheep/form-tools-mcp/internal/ocr"
	"github.com/ironsheep/form-tools-mcp/internal/template"
)

func ptr[T any](v T) *T { return &v }

var lineRect = image.Rect(10, 10, 110, 40)

func TestPolicy_ThresholdInclusive(t *testing.T) {
	field := template.Field{ID: "f001", Type: template.TypeTextLine, ConfRequired: ptr(0.7)}
	p := Policy{}

	d := p.Evaluate(ocr.Candidate{Text: "ABC123", Confidence: 0.7}, true, field, lineRect)
	assert.True(t, d.Accepted, "confidence equal to the threshold is accepted")

	d = p.Evaluate(ocr.Candidate{Text: "ABC123", Confidence: 0.6999}, true, field, lineRect)
	assert.False(t, d.Accepted)
	assert.Equal(t, ReasonLowConfidence, d.Reason)
	assert.Equal(t, "ABC123", d.Text, "rejected readings keep their text")
}

func TestPolicy_ThresholdPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		field *float64
		run   *float64
		want  float64
	}{
		{"default", nil, nil, DefaultConfidenceThreshold},
		{"run default", nil, ptr(0.5), 0.5},
		{"field wins", ptr(0.9), ptr(0.5), 0.9},
		{"field zero", ptr(0.0), ptr(0.5), 0.0},
		{"run zero", nil, ptr(0.0), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Policy{ConfidenceThreshold: tt.run}
			assert.Equal(t, tt.want, p.Threshold(template.Field{ConfRequired: tt.field}))
		})
	}
}

func TestPolicy_NoReading(t *testing.T) {
	d := Policy{}.Evaluate(ocr.Candidate{}, false, template.Field{ID: "f"}, lineRect)
	assert.False(t, d.Accepted)
	assert.Equal(t, ReasonNoReading, d.Reason)
	assert.Empty(t, d.Text)
	assert.Equal(t, template.TypeTextLine, d.FieldType)
}

func TestPolicy_MinLenInclusive(t *testing.T) {
	field := template.Field{ID: "f", Validate: template.Validation{MinLen: ptr(3)}}
	p := Policy{}

	d := p.Evaluate(ocr.Candidate{Text: "  abc  ", Confidence: 0.9}, true, field, lineRect)
	assert.True(t, d.Accepted, "length equal to min_len is accepted")
	assert.Equal(t, "abc", d.Text)

	d = p.Evaluate(ocr.Candidate{Text: "ab", Confidence: 0.9}, true, field, lineRect)
	assert.False(t, d.Accepted)
	assert.Equal(t, ReasonTooShort, d.Reason)
}

func TestPolicy_DefaultMinLen(t *testing.T) {
	p := Policy{}
	field := template.Field{ID: "f"}

	d := p.Evaluate(ocr.Candidate{Text: "X", Confidence: 0.9}, true, field, lineRect)
	assert.Equal(t, ReasonTooShort, d.Reason)

	d = p.Evaluate(ocr.Candidate{Text: "XY", Confidence: 0.9}, true, field, lineRect)
	assert.True(t, d.Accepted)

	d = p.Evaluate(ocr.Candidate{Text: "X", Confidence: 0.9}, true,
		template.Field{ID: "f", Validate: template.Validation{MinLen: ptr(0)}}, lineRect)
	assert.True(t, d.Accepted, "min_len 0 accepts single characters")
}

func TestPolicy_ConfidenceCheckedBeforeLength(t *testing.T) {
	d := Policy{}.Evaluate(ocr.Candidate{Text: "X", Confidence: 0.1}, true, template.Field{ID: "f"}, lineRect)
	assert.Equal(t, ReasonLowConfidence, d.Reason)
}

func TestPolicy_CountsRunesNotBytes(t *testing.T) {
	// Two Devanagari code points, six bytes.
	d := Policy{}.Evaluate(ocr.Candidate{Text: "कख", Confidence: 0.9}, true, template.Field{ID: "f"}, lineRect)
	assert.True(t, d.Accepted)
}

func TestNormalize(t *testing.T) {
	// "e" plus a combining acute composes to U+00E9.
	assert.Equal(t, "caf\u00e9", Normalize(" cafe\u0301\n"))
	// Devanagari QA is a composition exclusion: it is stored as KA + NUKTA.
	assert.Equal(t, "\u0915\u093c", Normalize("\u0958"))
	assert.Equal(t, Normalize("\u0915\u093c"), Normalize("\u0958"))
	assert.Equal(t, "", Normalize("   "))
}

func TestClassifyType(t *testing.T) {
	tests := []struct {
		name  string
		field template.Field
		rect  image.Rectangle
		want  template.FieldType
	}{
		{"wide line", template.Field{Type: template.TypeTextLine}, image.Rect(0, 0, 100, 30), template.TypeTextLine},
		{"declared grid", template.Field{Type: template.TypeBoxGrid}, image.Rect(0, 0, 400, 60), template.TypeBoxGrid},
		{"small box", template.Field{Type: template.TypeTextLine}, image.Rect(0, 0, 49, 49), template.TypeBoxGrid},
		{"width at threshold", template.Field{}, image.Rect(0, 0, 50, 20), template.TypeTextLine},
		{"height at threshold", template.Field{}, image.Rect(0, 0, 20, 50), template.TypeTextLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyType(tt.field, tt.rect))
		})
	}
}
