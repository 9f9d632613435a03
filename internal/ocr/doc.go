// Package ocr provides text recognition for form regions using Tesseract.
//
// The Engine interface is what field extraction depends on: it takes a
// conditioned region plus a Hint (language and page segmentation mode) and
// returns zero or more Candidates. Best picks the reading to keep.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Binaries built with CGO_ENABLED=0 still compile; NewTesseract then returns
// ErrOCRUnavailable and Info reports the engine as unavailable.
//
// # Languages
//
// Languages use Tesseract codes ("eng", "hin", "eng+hin"). The engine keeps
// one client per code, created on first use.
//
// # Thread Safety
//
// Tesseract is safe for concurrent use. Calls for the same language are
// serialized; calls for different languages are not.
package ocr
