package extract

import (
	"errors"
	"fmt"

	"github.com/ironsheep/form-tools-mcp/internal/imaging"
	"github.com/ironsheep/form-tools-mcp/internal/template"
)

// Kind classifies an extraction failure.
type Kind string

// Run-level kinds fail the whole run; field-level kinds reject one field.
const (
	// Run-level: nothing is extracted.
	KindImageNotFound      Kind = "IMAGE_NOT_FOUND"
	KindTemplateParseError Kind = "TEMPLATE_PARSE_ERROR"

	// Field-level: the field is rejected, the run continues.
	KindInvalidBBox       Kind = "INVALID_BBOX"
	KindRegionTooSmall    Kind = "REGION_TOO_SMALL"
	KindRecognitionFailed Kind = "RECOGNITION_FAILED"
)

// Reason explains why a field was not accepted.
type Reason string

const (
	// ReasonNoReading means the recognizer returned no non-empty candidate.
	ReasonNoReading Reason = "NO_READING"
	// ReasonLowConfidence means the best candidate fell below the threshold.
	ReasonLowConfidence Reason = "LOW_CONFIDENCE"
	// ReasonTooShort means the normalized text is shorter than min_len.
	ReasonTooShort Reason = "TOO_SHORT"

	// Field-level error kinds double as rejection reasons.
	ReasonInvalidBBox       = Reason(KindInvalidBBox)
	ReasonRegionTooSmall    = Reason(KindRegionTooSmall)
	ReasonRecognitionFailed = Reason(KindRecognitionFailed)
)

// Error is a classified extraction failure.
type Error struct {
	Kind    Kind
	FieldID string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.FieldID != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Kind, e.FieldID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same Kind, so the sentinels below work with
// errors.Is regardless of field or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	// ErrImageNotFound fails a run whose image cannot be decoded.
	ErrImageNotFound = &Error{Kind: KindImageNotFound, Message: "image not found"}
	// ErrTemplateParse fails a run whose template is unreadable or invalid.
	ErrTemplateParse = &Error{Kind: KindTemplateParseError, Message: "template parse error"}
	// ErrInvalidBBox rejects a field whose box falls outside the image.
	ErrInvalidBBox = &Error{Kind: KindInvalidBBox, Message: "invalid bounding box"}
	// ErrRegionTooSmall rejects a field whose crop is below imaging.MinRegionSide.
	ErrRegionTooSmall = &Error{Kind: KindRegionTooSmall, Message: "region too small"}
	// ErrRecognitionFailed rejects a field the OCR engine failed on.
	ErrRecognitionFailed = &Error{Kind: KindRecognitionFailed, Message: "recognition failed"}
)

func newError(kind Kind, fieldID string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		FieldID: fieldID,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// KindOf reports the Kind of err, mapping the template and imaging
// sentinels onto extraction kinds. The boolean is false for unclassified
// errors.
func KindOf(err error) (Kind, bool) {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e.Kind, true
	case errors.Is(err, imaging.ErrImageNotFound):
		return KindImageNotFound, true
	case errors.Is(err, template.ErrParse):
		return KindTemplateParseError, true
	case errors.Is(err, imaging.ErrRegionTooSmall):
		return KindRegionTooSmall, true
	}
	return "", false
}
