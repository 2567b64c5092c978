package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/alisoncf/gscan/internal/common"
	"github.com/alisoncf/gscan/internal/toolchain"
)

// DefaultDPI is the rasterization resolution used when none is given.
const DefaultDPI = 200

func init() {
	// pdfcpu would otherwise create a config directory under $HOME.
	model.ConfigPath = "disable"
}

// Rasterizer renders every page of a PDF, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, content []byte, dpi int) ([]image.Image, error)
}

// PopplerConfig configures the pdftoppm-backed rasterizer.
type PopplerConfig struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	TempDir  string // parent for the per-call work dir; empty -> os.TempDir()
	MaxPages int    // 0 = no limit
}

// PopplerRasterizer stages the PDF in a per-call temp dir, checks its page
// count with pdfcpu and renders PNGs with pdftoppm. The work dir is removed
// before Rasterize returns.
type PopplerRasterizer struct {
	cfg    PopplerConfig
	runner toolchain.Runner
	logger *slog.Logger
}

func NewPopplerRasterizer(cfg PopplerConfig, runner toolchain.Runner, logger *slog.Logger) *PopplerRasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = toolchain.ExecRunner()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	return &PopplerRasterizer{cfg: cfg, runner: runner, logger: logger}
}

func (r *PopplerRasterizer) Rasterize(ctx context.Context, content []byte, dpi int) ([]image.Image, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	tmpDir, err := os.MkdirTemp(r.cfg.TempDir, "gscan-pp-*")
	if err != nil {
		return nil, common.RasterizationError("create work dir", err)
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			r.logger.Warn("failed to remove temp dir", "path", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "document.pdf")
	if err := os.WriteFile(in, content, 0o600); err != nil {
		return nil, common.RasterizationError("stage pdf", err)
	}

	pages, err := api.PageCountFile(in)
	if err != nil {
		return nil, common.MalformedDocumentError("read pdf page tree", err)
	}
	if pages == 0 {
		return nil, common.MalformedDocumentError("pdf has no pages", nil)
	}
	if r.cfg.MaxPages > 0 && pages > r.cfg.MaxPages {
		return nil, common.RasterizationError(fmt.Sprintf("pdf has %d pages, limit is %d", pages, r.cfg.MaxPages), nil)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, r.logger, "-r", strconv.Itoa(dpi), "-png", in, prefix)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if toolchain.IsNotFound(err) {
			return nil, common.RasterizationError(r.cfg.Pdftoppm+" not found; install poppler-utils", err)
		}
		return nil, common.RasterizationError(
			fmt.Sprintf("pdftoppm: %s", toolchain.Truncate(strings.TrimSpace(string(errb)), 512)), err)
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ... possibly zero padded)
	matches, _ := filepath.Glob(prefix + "-*.png")
	if err := sortByPageNumber(matches); err != nil {
		return nil, common.RasterizationError("unexpected pdftoppm output", err)
	}
	if len(matches) != pages {
		return nil, common.RasterizationError(fmt.Sprintf("pdftoppm rendered %d of %d pages", len(matches), pages), nil)
	}

	out := make([]image.Image, 0, len(matches))
	for i, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, common.RasterizationError(fmt.Sprintf("read page %d", i+1), err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, common.RasterizationError(fmt.Sprintf("decode page %d", i+1), err)
		}
		out = append(out, img)
	}
	r.logger.Debug("pdf rasterized", "pages", len(out), "dpi", dpi)
	return out, nil
}

// sortByPageNumber orders prefix-N.png paths by N.
func sortByPageNumber(paths []string) error {
	nums := make(map[string]int, len(paths))
	for _, p := range paths {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		idx := strings.LastIndex(base, "-")
		n, err := strconv.Atoi(base[idx+1:])
		if err != nil {
			return fmt.Errorf("page number in %q: %w", filepath.Base(p), err)
		}
		nums[p] = n
	}
	sort.Slice(paths, func(i, j int) bool { return nums[paths[i]] < nums[paths[j]] })
	return nil
}
