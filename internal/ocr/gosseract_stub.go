//go:build !gosseract

package ocr

import (
	"context"
	"errors"
	"image"
	"log/slog"
)

// ErrGosseractNotEnabled is returned when the binary was built without the
// gosseract tag. Build with -tags gosseract to link libtesseract.
var ErrGosseractNotEnabled = errors.New("gosseract engine not enabled: build with -tags gosseract")

// GosseractConfig configures the in-process engine.
type GosseractConfig struct {
	Language    string
	TessdataDir string
	PoolSize    int
}

// GosseractEngine is a placeholder when cgo tesseract support is not compiled in.
type GosseractEngine struct{}

func NewGosseractEngine(GosseractConfig, *slog.Logger) (*GosseractEngine, error) {
	return nil, ErrGosseractNotEnabled
}

func (*GosseractEngine) Name() string { return "gosseract" }

func (*GosseractEngine) Recognize(context.Context, *image.Gray, Options) (Recognition, error) {
	return Recognition{}, ErrGosseractNotEnabled
}

func (*GosseractEngine) Close() error { return nil }
