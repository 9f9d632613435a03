//go:build cgo

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/form-tools-mcp/internal/imaging"
)

// Tesseract is an Engine backed by native Tesseract. It keeps one client per
// language; each client is stateful and guarded by its own mutex, so regions
// in the same language are recognized one at a time while different
// languages proceed in parallel.
type Tesseract struct {
	cfg TesseractConfig

	mu      sync.Mutex
	clients map[string]*langClient
	closed  bool
}

type langClient struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract creates an engine. Clients are created lazily on first use.
func NewTesseract(cfg TesseractConfig) (*Tesseract, error) {
	return &Tesseract{
		cfg:     cfg,
		clients: make(map[string]*langClient),
	}, nil
}

func (t *Tesseract) client(lang string) (*langClient, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, fmt.Errorf("ocr: engine closed")
	}
	if lc, ok := t.clients[lang]; ok {
		return lc, nil
	}

	c := gosseract.NewClient()
	if t.cfg.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(t.cfg.TessdataPrefix); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := c.SetLanguage(lang); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to set language %q: %w", lang, err)
	}

	lc := &langClient{client: c}
	t.clients[lang] = lc
	return lc, nil
}

// Recognize implements Engine. Each RIL_TEXTLINE box becomes a candidate.
func (t *Tesseract) Recognize(ctx context.Context, region image.Image, hint Hint) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := encodePNG(region)
	if err != nil {
		return nil, err
	}

	psm := hint.PSM
	if !psm.Valid() {
		psm = PSMSingleLine
	}

	lc, err := t.client(languageOrDefault(hint.Language))
	if err != nil {
		return nil, err
	}
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if err := lc.client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := lc.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := lc.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	candidates := make([]Candidate, 0, len(boxes))
	for _, box := range boxes {
		candidates = append(candidates, Candidate{
			Text:       box.Word,
			Confidence: box.Confidence / confidenceScale,
		})
	}
	return candidates, nil
}

// ExtractLines runs whole-page OCR on img, returning the full text plus
// line and word boxes in image coordinates.
func (t *Tesseract) ExtractLines(ctx context.Context, img image.Image, language string) (*OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}

	lc, err := t.client(languageOrDefault(language))
	if err != nil {
		return nil, err
	}
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if err := lc.client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := lc.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := lc.client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := &OCRResult{FullText: text, Lines: []TextRegion{}, Words: []TextRegion{}}

	offset := img.Bounds().Min
	if lines, err := lc.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE); err == nil {
		result.Lines = boxesToRegions(lines, offset)
	}
	// Return just text and lines if word boxes fail
	if words, err := lc.client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
		result.Words = boxesToRegions(words, offset)
	}
	return result, nil
}

// ExtractText loads the image at path and runs ExtractLines on it.
func (t *Tesseract) ExtractText(ctx context.Context, path, language string) (*OCRResult, error) {
	img, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}
	return t.ExtractLines(ctx, img, language)
}

// Close releases every client. The engine cannot be used afterwards.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	for lang, lc := range t.clients {
		lc.mu.Lock()
		if err := lc.client.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s client: %w", lang, err)
		}
		lc.mu.Unlock()
		delete(t.clients, lang)
	}
	t.closed = true
	return firstErr
}

// Info reports whether Tesseract can be initialized and its version.
func Info() OCRInfo {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	if version == "" {
		return OCRInfo{Available: false, Backend: "gosseract", Error: "tesseract did not report a version"}
	}
	return OCRInfo{Available: true, Version: version, Backend: "gosseract"}
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode region: %w", err)
	}
	return buf.Bytes(), nil
}

func boxesToRegions(boxes []gosseract.BoundingBox, offset image.Point) []TextRegion {
	texts := make([]string, len(boxes))
	confs := make([]float64, len(boxes))
	rects := make([]image.Rectangle, len(boxes))
	for i, b := range boxes {
		texts[i] = b.Word
		confs[i] = b.Confidence / confidenceScale
		rects[i] = b.Box.Add(offset)
	}
	return toRegions(texts, confs, rects)
}
