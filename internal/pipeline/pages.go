package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alisoncf/gscan/constants"
	"github.com/alisoncf/gscan/internal/ocr"
)

// recognizePages runs OCR on up to cfg.Workers pages at a time. Each worker
// writes into its page's slot, so the result is in page order whatever the
// completion order. The first failure cancels the remaining pages.
func (p *Pipeline) recognizePages(ctx context.Context, log *slog.Logger, pages []image.Image, mode constants.OutputMode, ro runOptions) ([]ocr.Recognition, error) {
	results := make([]ocr.Recognition, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, page := range pages {
		g.Go(func() error {
			rec, err := p.recognizePage(gctx, page, mode, ro)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			results[i] = rec
			log.Debug("pipeline.ocr.page.ok", "page", i+1, "chars", len(rec.Text))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
