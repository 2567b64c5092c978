// Package app wires the OCR engine, PDF stages and pipeline from a Config.
// The daemon and the CLIs share it.
package app

import (
	"context"
	"log/slog"

	"github.com/alisoncf/gscan/internal/common"
	"github.com/alisoncf/gscan/internal/ocr"
	"github.com/alisoncf/gscan/internal/pdf"
	"github.com/alisoncf/gscan/internal/pipeline"
	"github.com/alisoncf/gscan/internal/toolchain"
)

type App struct {
	Config    *common.Config
	Engine    ocr.Engine
	Pipeline  *pipeline.Pipeline
	Processor *pipeline.Processor
}

// New validates cfg, starts the configured OCR engine and builds the
// pipeline. A nil runner uses os/exec.
func New(ctx context.Context, cfg *common.Config, runner toolchain.Runner, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine, err := newEngine(ctx, cfg, runner, logger)
	if err != nil {
		return nil, err
	}

	text := pdf.NewNativeTextExtractor(logger)
	raster := pdf.NewPopplerRasterizer(pdf.PopplerConfig{
		Pdftoppm: cfg.PDF.Pdftoppm,
		MaxPages: cfg.PDF.MaxPages,
	}, runner, logger)
	pipe := pipeline.New(pipeline.Config{
		DPI:       cfg.PDF.DPI,
		MaxWidth:  cfg.Pipeline.MaxWidth,
		MaxHeight: cfg.Pipeline.MaxHeight,
		Workers:   cfg.Pipeline.Workers,
		Profile:   cfg.OCR.Profile,
	}, engine, text, raster, logger)

	return &App{
		Config:    cfg,
		Engine:    engine,
		Pipeline:  pipe,
		Processor: pipeline.NewProcessor(logger, pipe),
	}, nil
}

func (a *App) Close() error {
	return a.Engine.Close()
}

func newEngine(ctx context.Context, cfg *common.Config, runner toolchain.Runner, logger *slog.Logger) (ocr.Engine, error) {
	switch cfg.OCR.Engine {
	case common.EngineGosseract:
		e, err := ocr.NewGosseractEngine(ocr.GosseractConfig{
			Language:    cfg.OCR.Language,
			TessdataDir: cfg.OCR.TessdataDir,
			PoolSize:    cfg.Pipeline.Workers,
		}, logger)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		e := ocr.NewTesseractEngine(ocr.TesseractConfig{
			Binary:      cfg.OCR.Tesseract,
			Language:    cfg.OCR.Language,
			TessdataDir: cfg.OCR.TessdataDir,
		}, runner, logger)
		if err := e.Init(ctx); err != nil {
			return nil, err
		}
		return e, nil
	}
}
