//go:build gosseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/alisoncf/gscan/internal/common"
)

// GosseractConfig configures the in-process engine.
type GosseractConfig struct {
	Language    string
	TessdataDir string
	PoolSize    int // clients kept alive; one per concurrent page
}

// GosseractEngine links libtesseract through cgo. A gosseract client is not
// safe for concurrent use, so the engine owns a fixed pool of clients
// created up front and hands one to each Recognize call.
type GosseractEngine struct {
	cfg     GosseractConfig
	logger  *slog.Logger
	clients chan *gosseract.Client

	closeOnce sync.Once
	all       []*gosseract.Client
}

func NewGosseractEngine(cfg GosseractConfig, logger *slog.Logger) (*GosseractEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = "por"
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 4
	}
	e := &GosseractEngine{cfg: cfg, logger: logger, clients: make(chan *gosseract.Client, cfg.PoolSize)}
	for i := 0; i < cfg.PoolSize; i++ {
		c := gosseract.NewClient()
		if cfg.TessdataDir != "" {
			if err := c.SetTessdataPrefix(cfg.TessdataDir); err != nil {
				_ = c.Close()
				_ = e.Close()
				return nil, common.OCREngineError("set tessdata prefix", err)
			}
		}
		if err := c.SetLanguage(cfg.Language); err != nil {
			_ = c.Close()
			_ = e.Close()
			return nil, common.OCREngineError("set language", err)
		}
		e.all = append(e.all, c)
		e.clients <- c
	}
	logger.Info("ocr engine ready", "engine", e.Name(), "lang", cfg.Language, "pool_size", cfg.PoolSize)
	return e, nil
}

func (e *GosseractEngine) Name() string { return "gosseract" }

func (e *GosseractEngine) Recognize(ctx context.Context, page *image.Gray, opts Options) (Recognition, error) {
	if page == nil || page.Bounds().Empty() {
		return Recognition{}, common.OCREngineError("page image is empty", nil)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, page); err != nil {
		return Recognition{}, common.OCREngineError("encode page image", err)
	}

	var client *gosseract.Client
	select {
	case client = <-e.clients:
	case <-ctx.Done():
		return Recognition{}, ctx.Err()
	}
	defer func() { e.clients <- client }()

	// Clients are reused, so the segmentation mode is set on every call.
	psm := gosseract.PSM_AUTO
	if opts.PSM > 0 {
		psm = gosseract.PageSegMode(opts.PSM)
	}
	if err := client.SetPageSegMode(psm); err != nil {
		return Recognition{}, common.OCREngineError(fmt.Sprintf("set psm %d", psm), err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Recognition{}, common.OCREngineError("set image", err)
	}
	text, err := client.Text()
	if err != nil {
		return Recognition{}, common.OCREngineError("recognize", err)
	}
	return newRecognition(text, opts.Mode), nil
}

// Close releases every pooled client.
func (e *GosseractEngine) Close() error {
	var firstErr error
	e.closeOnce.Do(func() {
		for _, c := range e.all {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}
