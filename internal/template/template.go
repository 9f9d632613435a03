package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrParse is matched (via errors.Is) by every error Load, Parse and
// Validate return.
var ErrParse = errors.New("template parse error")

// ParseError describes why a template document was rejected.
type ParseError struct {
	Path    string // Source document, empty when parsed from memory
	FieldID string // Offending field, empty for document-level problems
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("template")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.FieldID != "" {
		fmt.Fprintf(&b, " field %q", e.FieldID)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports ErrParse as a match so callers need not know the concrete type.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// FieldType selects how a field is recognised and post-processed.
type FieldType string

const (
	// TypeTextLine is a single line of free text.
	TypeTextLine FieldType = "text_line"
	// TypeBoxGrid is a small segmented region such as a boxed numeric code.
	TypeBoxGrid FieldType = "box_grid"
)

// Format identifies a template document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the document format from a file extension.
// Anything that is not .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Template is a parsed, validated form template.
type Template struct {
	FormName string   `json:"form_name" yaml:"form_name"`
	Version  string   `json:"version" yaml:"version"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Fields   []Field  `json:"fields" yaml:"fields"`
}

// Metadata carries page-level information shared by all fields.
type Metadata struct {
	// DPI is the scan resolution used to convert millimetre boxes to pixels.
	DPI       int    `json:"dpi,omitempty" yaml:"dpi,omitempty"`
	Language  string `json:"language,omitempty" yaml:"language,omitempty"`
	ImagePath string `json:"image_path,omitempty" yaml:"image_path,omitempty"`
}

// Field is one named, positioned region of the form.
type Field struct {
	ID    string    `json:"id" yaml:"id"`
	Name  string    `json:"name,omitempty" yaml:"name,omitempty"`
	Label string    `json:"label,omitempty" yaml:"label,omitempty"`
	Type  FieldType `json:"type,omitempty" yaml:"type,omitempty"`
	Page  int       `json:"page,omitempty" yaml:"page,omitempty"`
	BBox  BBox      `json:"bbox" yaml:"bbox"`
	OCR   OCRConfig `json:"ocr,omitempty" yaml:"ocr,omitempty"`

	// ConfRequired is the minimum accepted recognition confidence.
	// Nil means the run default applies.
	ConfRequired *float64 `json:"conf_required,omitempty" yaml:"conf_required,omitempty"`

	Validate Validation `json:"validate,omitempty" yaml:"validate,omitempty"`

	// Conf is the confidence observed when the field was bootstrapped.
	// Informational only.
	Conf *float64 `json:"conf,omitempty" yaml:"conf,omitempty"`
}

// OCRConfig holds per-field recognition hints.
type OCRConfig struct {
	Lang string `json:"lang,omitempty" yaml:"lang,omitempty"`
	// PSM is a Tesseract page segmentation mode (0-13). Zero means unset.
	PSM int `json:"psm,omitempty" yaml:"psm,omitempty"`
}

// Validation holds content requirements for a field's value.
type Validation struct {
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	// MinLen is the minimum trimmed length in characters. Nil means the
	// run default applies.
	MinLen *int `json:"min_len,omitempty" yaml:"min_len,omitempty"`
}

// BBox locates a field as [x, y, w, h] in pixels and/or millimetres.
type BBox struct {
	PX []int     `json:"px,omitempty" yaml:"px,omitempty"`
	MM []float64 `json:"mm,omitempty" yaml:"mm,omitempty"`
}

// HasPX reports whether a pixel box is present.
func (b BBox) HasPX() bool { return len(b.PX) == 4 }

// HasMM reports whether a millimetre box is present.
func (b BBox) HasMM() bool { return len(b.MM) == 4 }

// Load reads and validates a template document. The format is chosen from
// the file extension.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "unreadable", Err: err}
	}

	tpl, err := Parse(data, FormatForPath(path))
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}
	return tpl, nil
}

// Parse decodes and validates a template document held in memory.
func Parse(data []byte, format Format) (*Template, error) {
	var tpl Template

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return nil, &ParseError{Reason: "malformed YAML", Err: err}
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&tpl); err != nil {
			return nil, &ParseError{Reason: "malformed JSON", Err: err}
		}
	}

	tpl.applyDefaults()

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (t *Template) applyDefaults() {
	for i := range t.Fields {
		f := &t.Fields[i]
		if f.Type == "" {
			f.Type = TypeTextLine
		}
		if f.Page == 0 {
			f.Page = 1
		}
	}
}

// Validate checks the template invariants: unique non-empty field ids, a
// supported type, well-formed boxes, and a positive DPI whenever a field can
// only be located in millimetres. An empty type and a zero page stand for the
// defaults Parse fills in.
func (t *Template) Validate() error {
	if len(t.Fields) == 0 {
		return &ParseError{Reason: "no fields"}
	}
	if t.Metadata.DPI < 0 {
		return &ParseError{Reason: fmt.Sprintf("metadata.dpi must be positive, got %d", t.Metadata.DPI)}
	}

	seen := make(map[string]struct{}, len(t.Fields))
	for i, f := range t.Fields {
		if f.ID == "" {
			return &ParseError{Reason: fmt.Sprintf("field #%d has no id", i+1)}
		}
		if _, dup := seen[f.ID]; dup {
			return &ParseError{FieldID: f.ID, Reason: "duplicate id"}
		}
		seen[f.ID] = struct{}{}

		if err := t.validateField(f); err != nil {
			return err
		}
	}
	return nil
}

func (t *Template) validateField(f Field) error {
	fail := func(format string, args ...any) error {
		return &ParseError{FieldID: f.ID, Reason: fmt.Sprintf(format, args...)}
	}

	switch f.Type {
	case "", TypeTextLine, TypeBoxGrid:
	default:
		return fail("unknown type %q", f.Type)
	}
	if f.Page < 0 {
		return fail("page must be >= 1, got %d", f.Page)
	}

	if f.BBox.PX != nil && len(f.BBox.PX) != 4 {
		return fail("bbox.px must have 4 values, got %d", len(f.BBox.PX))
	}
	if f.BBox.MM != nil && len(f.BBox.MM) != 4 {
		return fail("bbox.mm must have 4 values, got %d", len(f.BBox.MM))
	}
	if !f.BBox.HasPX() && !f.BBox.HasMM() {
		return fail("bbox has neither px nor mm")
	}
	if !f.BBox.HasPX() && t.Metadata.DPI <= 0 {
		return fail("bbox is in mm only but metadata.dpi is missing")
	}

	if f.ConfRequired != nil && (*f.ConfRequired < 0 || *f.ConfRequired > 1) {
		return fail("conf_required must be within [0,1], got %g", *f.ConfRequired)
	}
	if f.Validate.MinLen != nil && *f.Validate.MinLen < 0 {
		return fail("validate.min_len must be >= 0, got %d", *f.Validate.MinLen)
	}
	if f.OCR.PSM < 0 || f.OCR.PSM > 13 {
		return fail("ocr.psm must be within 0-13, got %d", f.OCR.PSM)
	}
	return nil
}

// Field returns the field with the given id.
func (t *Template) Field(id string) (Field, bool) {
	for _, f := range t.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Save writes the template to path as JSON or YAML, chosen by extension.
func Save(path string, t *Template) error {
	var (
		data []byte
		err  error
	)
	switch FormatForPath(path) {
	case FormatYAML:
		data, err = yaml.Marshal(t)
	default:
		data, err = json.MarshalIndent(t, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	if data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}
