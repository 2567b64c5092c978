// Package pdf reads PDF documents: the embedded text layer for digital
// PDFs and page rasters for scanned ones.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/alisoncf/gscan/internal/common"
)

// TextExtractor returns the embedded text of a PDF. An empty string with a
// nil error means the document has no text layer.
type TextExtractor interface {
	ExtractNativeText(ctx context.Context, content []byte) (string, error)
}

// NativeTextExtractor parses the PDF in memory.
type NativeTextExtractor struct {
	logger *slog.Logger
}

func NewNativeTextExtractor(logger *slog.Logger) *NativeTextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeTextExtractor{logger: logger}
}

// ExtractNativeText walks the pages in order and concatenates their plain
// text. Pages whose content streams cannot be decoded contribute nothing.
func (x *NativeTextExtractor) ExtractNativeText(ctx context.Context, content []byte) (text string, err error) {
	// The parser panics on some malformed inputs instead of returning errors.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = common.MalformedDocumentError(fmt.Sprintf("parse pdf: %v", r), nil)
		}
	}()

	r, err := lpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", common.MalformedDocumentError("open pdf", err)
	}

	var b strings.Builder
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			x.logger.Warn("pdf page text unreadable", "page", i, "error", err)
			continue
		}
		if pageText == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pageText)
	}

	text = strings.TrimSpace(b.String())
	x.logger.Debug("pdf text layer read", "pages", numPages, "chars", len(text))
	return text, nil
}
