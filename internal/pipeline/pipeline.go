// Package pipeline turns a document into text: the embedded PDF text layer
// when there is one, OCR of every page otherwise.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/alisoncf/gscan/constants"
	"github.com/alisoncf/gscan/internal/common"
	"github.com/alisoncf/gscan/internal/document"
	"github.com/alisoncf/gscan/internal/imaging"
	"github.com/alisoncf/gscan/internal/ocr"
	"github.com/alisoncf/gscan/internal/pdf"
)

// Config holds the tunables of a Pipeline. Zero values take the defaults.
type Config struct {
	DPI       int               // rasterization resolution, default 200
	MaxWidth  int               // preprocessing bound, default 1200
	MaxHeight int               // preprocessing bound, default 1200
	Workers   int               // concurrent page OCR, default 4
	Profile   constants.Profile // default accurate
}

// Result is the text of one document. Text always holds the page texts
// joined with newlines; Lines is filled in ModeLines only.
type Result struct {
	Text     string
	Lines    []string
	OCRPages int    // pages that went through OCR; 0 on the PDF text path
	Method   string // constants.MethodPDFText | MethodPDFOCR | MethodImageOCR
	Duration time.Duration
}

// Pipeline is safe for concurrent use; every Run owns its pages and temp
// files, and the engine is the only shared collaborator.
type Pipeline struct {
	cfg    Config
	engine ocr.Engine
	text   pdf.TextExtractor
	raster pdf.Rasterizer
	logger *slog.Logger
}

func New(cfg Config, engine ocr.Engine, text pdf.TextExtractor, raster pdf.Rasterizer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DPI <= 0 {
		cfg.DPI = pdf.DefaultDPI
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 1200
	}
	if cfg.MaxHeight <= 0 {
		cfg.MaxHeight = 1200
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if !cfg.Profile.Valid() {
		cfg.Profile = constants.ProfileAccurate
	}
	return &Pipeline{cfg: cfg, engine: engine, text: text, raster: raster, logger: logger}
}

type runOptions struct {
	profile constants.Profile
}

// RunOption adjusts a single Run.
type RunOption func(*runOptions)

// WithProfile overrides the configured OCR profile for one document.
func WithProfile(p constants.Profile) RunOption {
	return func(o *runOptions) {
		if p.Valid() {
			o.profile = p
		}
	}
}

// Run extracts the text of doc. Any failure aborts the whole document; no
// partial text is returned with an error.
func (p *Pipeline) Run(ctx context.Context, doc document.Document, mode constants.OutputMode, opts ...RunOption) (Result, error) {
	start := time.Now()
	if !mode.Valid() {
		return Result{}, common.NewAppError("INVALID_MODE", fmt.Sprintf("unknown output mode %q", mode), common.ErrInvalidInput)
	}
	ro := runOptions{profile: p.cfg.Profile}
	for _, o := range opts {
		o(&ro)
	}
	log := common.LoggerFromContext(ctx, p.logger).With("document", doc.Filename, "profile", ro.profile, "mode", mode)

	var (
		res Result
		err error
	)
	switch doc.Format() {
	case constants.PDF:
		res, err = p.runPDF(ctx, log, doc, mode, ro)
	case constants.IMAGE:
		res, err = p.runImage(ctx, doc, mode, ro)
	default:
		log.Warn("pipeline.unsupported", "ext", doc.Ext())
		return Result{}, common.UnsupportedFormatError(doc.Ext())
	}
	if err != nil {
		log.Error("pipeline.failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return Result{}, err
	}

	res.Duration = time.Since(start)
	log.Info("pipeline.ok",
		"method", res.Method,
		"ocr_pages", res.OCRPages,
		"chars", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) runImage(ctx context.Context, doc document.Document, mode constants.OutputMode, ro runOptions) (Result, error) {
	img, err := imaging.Decode(doc.Content)
	if err != nil {
		return Result{}, err
	}
	rec, err := p.recognizePage(ctx, img, mode, ro)
	if err != nil {
		return Result{}, err
	}
	return assemble([]ocr.Recognition{rec}, mode, constants.MethodImageOCR), nil
}

func (p *Pipeline) runPDF(ctx context.Context, log *slog.Logger, doc document.Document, mode constants.OutputMode, ro runOptions) (Result, error) {
	text, err := p.text.ExtractNativeText(ctx, doc.Content)
	if err != nil {
		return Result{}, err
	}
	if text = strings.TrimSpace(text); text != "" {
		log.Info("pipeline.pdf.text.ok", "chars", len(text))
		res := Result{Text: text, Method: constants.MethodPDFText}
		if mode == constants.ModeLines {
			res.Lines = ocr.SplitLines(text)
		}
		return res, nil
	}

	log.Info("pipeline.pdf.scanned", "dpi", p.cfg.DPI)
	pages, err := p.raster.Rasterize(ctx, doc.Content, p.cfg.DPI)
	if err != nil {
		return Result{}, err
	}
	recs, err := p.recognizePages(ctx, log, pages, mode, ro)
	if err != nil {
		return Result{}, err
	}
	return assemble(recs, mode, constants.MethodPDFOCR), nil
}

// recognizePage preprocesses one page and runs the engine on it.
func (p *Pipeline) recognizePage(ctx context.Context, img image.Image, mode constants.OutputMode, ro runOptions) (ocr.Recognition, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Recognition{}, err
	}
	gray, err := imaging.Preprocess(img, imaging.Options{
		MaxWidth:  p.cfg.MaxWidth,
		MaxHeight: p.cfg.MaxHeight,
		Profile:   ro.profile,
	})
	if err != nil {
		return ocr.Recognition{}, err
	}
	return p.engine.Recognize(ctx, gray, ocr.OptionsFor(ro.profile, mode))
}

// assemble joins per-page recognitions, already in page order.
func assemble(recs []ocr.Recognition, mode constants.OutputMode, method string) Result {
	res := Result{Method: method, OCRPages: len(recs)}
	texts := make([]string, len(recs))
	for i, rec := range recs {
		texts[i] = rec.Text
		if mode != constants.ModeLines {
			continue
		}
		lines := rec.Lines
		if lines == nil {
			lines = ocr.SplitLines(rec.Text)
		}
		res.Lines = append(res.Lines, lines...)
	}
	res.Text = strings.Join(texts, "\n")
	return res
}
