package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/alisoncf/gscan/internal/common"
	"github.com/alisoncf/gscan/internal/toolchain"
)

// TesseractConfig configures the CLI-backed engine.
type TesseractConfig struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	Language    string // default "por"
	TessdataDir string
	TempDir     string // where pages are staged; empty -> os.TempDir()
}

// TesseractEngine shells out to the tesseract CLI. Each page is staged as a
// temporary PNG that is removed before Recognize returns.
type TesseractEngine struct {
	cfg    TesseractConfig
	runner toolchain.Runner
	logger *slog.Logger

	mu    sync.Mutex
	ready bool
}

func NewTesseractEngine(cfg TesseractConfig, runner toolchain.Runner, logger *slog.Logger) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = toolchain.ExecRunner()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "por"
	}
	return &TesseractEngine{cfg: cfg, runner: runner, logger: logger}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

func (e *TesseractEngine) Close() error { return nil }

// Init checks that the binary runs and the configured language data is
// installed. It succeeds at most once; later calls are free. A failed
// attempt is retried on the next call.
func (e *TesseractEngine) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready {
		return nil
	}

	var args []string
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "--list-langs")
	out, errb, err := e.runner.Run(ctx, e.cfg.Binary, e.logger, args...)
	if err != nil {
		return common.OCREngineError(fmt.Sprintf("%s unavailable: %s", e.cfg.Binary, strings.TrimSpace(string(errb))), err)
	}
	installed := parseLangs(out)
	for _, lang := range strings.Split(e.cfg.Language, "+") {
		if _, ok := installed[lang]; !ok {
			return common.OCREngineError(fmt.Sprintf("tesseract language %q is not installed", lang), nil)
		}
	}

	e.ready = true
	e.logger.Info("ocr engine ready", "engine", e.Name(), "lang", e.cfg.Language, "installed_langs", len(installed))
	return nil
}

// parseLangs reads `tesseract --list-langs` output; the first line is a header.
func parseLangs(out []byte) map[string]struct{} {
	langs := map[string]struct{}{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		ln := strings.TrimSpace(sc.Text())
		if first {
			first = false
			if strings.HasPrefix(ln, "List of available languages") {
				continue
			}
		}
		if ln != "" {
			langs[ln] = struct{}{}
		}
	}
	return langs
}

func (e *TesseractEngine) Recognize(ctx context.Context, page *image.Gray, opts Options) (Recognition, error) {
	if page == nil || page.Bounds().Empty() {
		return Recognition{}, common.OCREngineError("page image is empty", nil)
	}
	if err := e.Init(ctx); err != nil {
		return Recognition{}, err
	}

	path, cleanup, err := stagePNG(e.cfg.TempDir, page)
	if err != nil {
		return Recognition{}, common.OCREngineError("stage page image", err)
	}
	defer cleanup()

	// tesseract <file> stdout -l <lang> [--tessdata-dir D] [--oem N] [--psm N]
	out, errb, err := e.runner.Run(ctx, e.cfg.Binary, e.logger, e.args(path, opts)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Recognition{}, ctxErr
		}
		return Recognition{}, common.OCREngineError(
			fmt.Sprintf("tesseract: %s", toolchain.Truncate(strings.TrimSpace(string(errb)), 512)), err)
	}
	return newRecognition(string(out), opts.Mode), nil
}

func (e *TesseractEngine) args(path string, opts Options) []string {
	args := []string{path, "stdout", "-l", e.cfg.Language}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	if opts.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(opts.OEM))
	}
	if opts.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(opts.PSM))
	}
	return args
}

// stagePNG writes page to a temp file. cleanup removes it and is safe to
// call on every path.
func stagePNG(dir string, page image.Image) (string, func(), error) {
	f, err := os.CreateTemp(dir, "gscan-page-*.png")
	if err != nil {
		return "", func() {}, err
	}
	cleanup := func() { _ = os.Remove(f.Name()) }

	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(f, page); err != nil {
		_ = f.Close()
		cleanup()
		return "", func() {}, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return f.Name(), cleanup, nil
}
