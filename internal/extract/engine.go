package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/form-tools-mcp/internal/detection"
	"github.com/ironsheep/form-tools-mcp/internal/imaging"
	"github.com/ironsheep/form-tools-mcp/internal/metrics"
	"github.com/ironsheep/form-tools-mcp/internal/ocr"
	"github.com/ironsheep/form-tools-mcp/internal/template"
)

// DefaultLanguage is used when neither the field, the request nor the
// template names one.
const DefaultLanguage = "eng"

// Request describes one extraction run from files on disk.
type Request struct {
	ImagePath    string
	TemplatePath string

	// LanguageHint applies to fields without their own ocr.lang.
	LanguageHint string

	// ConfidenceThreshold applies to fields without conf_required.
	ConfidenceThreshold *float64
}

// RunOptions carries the per-run settings of Extract.
type RunOptions struct {
	// ImagePath is reported in the Extraction only.
	ImagePath           string
	LanguageHint        string
	ConfidenceThreshold *float64
}

// Engine runs templates against images.
type Engine struct {
	recognizer   ocr.Engine
	workers      int
	logger       *slog.Logger
	segmentGrids bool
	page         int
	loadImage    func(path string) (image.Image, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets how many fields are processed concurrently. Values below
// 2 process fields one after another.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithGridSegmentation enables per-cell recognition of box_grid fields.
func WithGridSegmentation(enabled bool) Option {
	return func(e *Engine) { e.segmentGrids = enabled }
}

// WithPage selects which template page is extracted. Fields on other pages
// are skipped.
func WithPage(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.page = n
		}
	}
}

// WithImageLoader replaces imaging.Load as the way Run reads images, for
// callers that keep decoded scans in a cache.
func WithImageLoader(load func(path string) (image.Image, error)) Option {
	return func(e *Engine) {
		if load != nil {
			e.loadImage = load
		}
	}
}

// New creates an Engine that reads regions with recognizer.
func New(recognizer ocr.Engine, opts ...Option) *Engine {
	e := &Engine{
		recognizer: recognizer,
		workers:    1,
		logger:     slog.Default(),
		page:       1,
		loadImage:  imaging.Load,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run loads the template and image named by req and extracts every field.
// A template that cannot be loaded or an image that cannot be decoded fails
// the whole run before any field is recognized.
func (e *Engine) Run(ctx context.Context, req Request) (*Extraction, error) {
	tpl, err := template.Load(req.TemplatePath)
	if err != nil {
		metrics.ObserveRun(metrics.RunError)
		return nil, newError(KindTemplateParseError, "", err, "cannot load template %s", req.TemplatePath)
	}

	img, err := e.loadImage(req.ImagePath)
	if err != nil {
		metrics.ObserveRun(metrics.RunError)
		return nil, newError(KindImageNotFound, "", err, "cannot load image %s", req.ImagePath)
	}

	return e.Extract(ctx, tpl, img, RunOptions{
		ImagePath:           req.ImagePath,
		LanguageHint:        req.LanguageHint,
		ConfidenceThreshold: req.ConfidenceThreshold,
	})
}

// Extract runs tpl against an in-memory image. tpl is validated first, as Load
// would. Field-level failures become rejected results; only an invalid input
// or context cancellation fails the run.
func (e *Engine) Extract(ctx context.Context, tpl *template.Template, img image.Image, opts RunOptions) (*Extraction, error) {
	if tpl == nil {
		metrics.ObserveRun(metrics.RunError)
		return nil, newError(KindTemplateParseError, "", nil, "no template")
	}
	if err := tpl.Validate(); err != nil {
		metrics.ObserveRun(metrics.RunError)
		return nil, newError(KindTemplateParseError, "", err, "invalid template %s", tpl.FormName)
	}
	if img == nil {
		metrics.ObserveRun(metrics.RunError)
		return nil, newError(KindImageNotFound, "", nil, "no image")
	}

	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID, "form", tpl.FormName)

	fields := make([]template.Field, 0, len(tpl.Fields))
	for _, f := range tpl.Fields {
		if pageOf(f) != e.page {
			logger.Debug("skipping field on another page", "field_id", f.ID, "page", f.Page)
			continue
		}
		fields = append(fields, f)
	}

	run := &fieldRun{
		engine: e,
		logger: logger,
		tpl:    tpl,
		img:    img,
		opts:   opts,
		policy: Policy{ConfidenceThreshold: opts.ConfidenceThreshold},
	}

	start := time.Now()
	results, err := e.processAll(ctx, run, fields)
	if err != nil {
		metrics.ObserveRun(metrics.RunCanceled)
		logger.Warn("extraction aborted", "error", err)
		return nil, err
	}

	ext := Aggregate(fields, results)
	ext.RunID = runID
	ext.FormName = tpl.FormName
	ext.ImagePath = opts.ImagePath
	ext.ImageWidth = img.Bounds().Dx()
	ext.ImageHeight = img.Bounds().Dy()

	metrics.ObserveRun(metrics.RunSuccess)
	logger.Info("extraction complete",
		"accepted", len(ext.Fields),
		"rejected", len(ext.Rejected),
		"missing_required", len(ext.MissingRequired),
		"duration", time.Since(start))
	return ext, nil
}

// processAll returns one result per field, index-aligned with fields.
func (e *Engine) processAll(ctx context.Context, run *fieldRun, fields []template.Field) ([]Result, error) {
	results := make([]Result, len(fields))

	if e.workers <= 1 || len(fields) <= 1 {
		for i, f := range fields {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = run.process(ctx, f)
		}
		return results, ctx.Err()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(e.workers, len(fields)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = run.process(ctx, fields[i])
			}
		}()
	}

	// Send jobs
	func() {
		defer close(jobs)
		for i := range fields {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// fieldRun holds what every field of one run shares. All of it is read-only.
type fieldRun struct {
	engine *Engine
	logger *slog.Logger
	tpl    *template.Template
	img    image.Image
	opts   RunOptions
	policy Policy
}

func (r *fieldRun) process(ctx context.Context, f template.Field) Result {
	start := time.Now()
	res := r.extractField(ctx, f)

	metrics.ObserveField(res.Accepted, string(res.Reason), time.Since(start))
	if !res.Accepted {
		r.logger.Info("field rejected",
			"field_id", f.ID,
			"reason", res.Reason,
			"confidence", res.Confidence,
			"detail", res.Detail)
	}
	return res
}

func (r *fieldRun) extractField(ctx context.Context, f template.Field) Result {
	res := Result{
		FieldID:      f.ID,
		OriginalBBox: f.BBox,
		FieldType:    f.Type,
	}
	if res.FieldType == "" {
		res.FieldType = template.TypeTextLine
	}

	rect, err := Resolve(f.BBox, r.tpl.Metadata.DPI, r.img.Bounds().Size())
	if err != nil {
		return rejectWith(res, ReasonInvalidBBox, err)
	}
	res.ResolvedBBoxPx = BoxFromRect(rect)
	res.FieldType = ClassifyType(f, rect)

	region, err := imaging.CropRegion(r.img, rect)
	if err != nil {
		return rejectWith(res, ReasonInvalidBBox, err)
	}
	cond, err := imaging.Condition(region)
	if err != nil {
		if errors.Is(err, imaging.ErrRegionTooSmall) {
			return rejectWith(res, ReasonRegionTooSmall, err)
		}
		return rejectWith(res, ReasonRecognitionFailed, err)
	}

	hint := ocr.Hint{
		Language: r.language(f),
		PSM:      psmFor(f, res.FieldType),
	}

	var (
		reading ocr.Candidate
		ok      bool
	)
	if r.engine.segmentGrids && res.FieldType == template.TypeBoxGrid {
		cells := detection.SegmentGrid(cond.Image, detection.DefaultMinCell)
		res.Cells = boxesFromRects(cells, rect.Min)
		reading, ok, err = r.readCells(ctx, cond.Image, cells, hint)
	} else {
		reading, ok, err = ocr.Best(ctx, r.engine.recognizer, cond.Image, hint)
	}
	if err != nil {
		return rejectWith(res, ReasonRecognitionFailed, err)
	}
	if ok {
		metrics.ObserveConfidence(reading.Confidence)
	}

	d := r.policy.Evaluate(reading, ok, f, rect)
	res.Text = d.Text
	res.Confidence = d.Confidence
	res.Accepted = d.Accepted
	res.Reason = d.Reason
	if d.Reason == ReasonLowConfidence {
		res.Detail = fmt.Sprintf("confidence %.2f below %.2f", d.Confidence, r.policy.Threshold(f))
	}
	return res
}

// readCells recognizes each grid cell as a single character and joins the
// readings left to right. Blank cells are skipped. The combined confidence
// is that of the weakest cell read.
func (r *fieldRun) readCells(ctx context.Context, bin *image.Gray, cells []image.Rectangle, hint ocr.Hint) (ocr.Candidate, bool, error) {
	if len(cells) <= 1 {
		return ocr.Best(ctx, r.engine.recognizer, bin, hint)
	}

	hint.PSM = ocr.PSMSingleChar
	var (
		text  strings.Builder
		conf  float64
		found bool
	)
	for _, c := range cells {
		cell, ok := bin.SubImage(c).(*image.Gray)
		if !ok || c.Dx() < imaging.MinRegionSide || c.Dy() < imaging.MinRegionSide {
			continue
		}
		reading, ok, err := ocr.Best(ctx, r.engine.recognizer, cell, hint)
		if err != nil {
			return ocr.Candidate{}, false, err
		}
		if !ok {
			continue
		}
		text.WriteString(strings.TrimSpace(reading.Text))
		if !found || reading.Confidence < conf {
			conf = reading.Confidence
		}
		found = true
	}
	return ocr.Candidate{Text: text.String(), Confidence: conf}, found, nil
}

// language picks the first of: the field's ocr.lang, the run's hint, the
// template's metadata language, DefaultLanguage.
func (r *fieldRun) language(f template.Field) string {
	for _, lang := range []string{f.OCR.Lang, r.opts.LanguageHint, r.tpl.Metadata.Language} {
		if lang != "" {
			return lang
		}
	}
	return DefaultLanguage
}

// pageOf treats an unset page as the first one.
func pageOf(f template.Field) int {
	if f.Page < 1 {
		return 1
	}
	return f.Page
}

func psmFor(f template.Field, t template.FieldType) ocr.PageSegMode {
	if f.OCR.PSM > 0 {
		return ocr.PageSegMode(f.OCR.PSM)
	}
	if t == template.TypeBoxGrid {
		return ocr.PSMSingleWord
	}
	return ocr.PSMSingleLine
}

func rejectWith(res Result, reason Reason, err error) Result {
	res.Accepted = false
	res.Reason = reason
	res.Detail = err.Error()
	return res
}
