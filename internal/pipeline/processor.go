package pipeline

import (
	"context"
	"log/slog"

	"github.com/alisoncf/gscan/constants"
	"github.com/alisoncf/gscan/internal/common"
	"github.com/alisoncf/gscan/internal/document"
	"github.com/alisoncf/gscan/internal/fields"
)

// Runner is the text stage the Processor drives. *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, doc document.Document, mode constants.OutputMode, opts ...RunOption) (Result, error)
}

// Processor coordinates text extraction and then the field stage.
type Processor struct {
	Logger *slog.Logger
	Text   Runner
}

func NewProcessor(logger *slog.Logger, text Runner) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Text: text}
}

// Transcribe returns the document text, pages joined with newlines.
func (p *Processor) Transcribe(ctx context.Context, doc document.Document, opts ...RunOption) (Result, error) {
	return p.Text.Run(ctx, doc, constants.ModeText, opts...)
}

// ExtractPairs splits the recognized lines into key/value pairs without a
// field list.
func (p *Processor) ExtractPairs(ctx context.Context, doc document.Document, opts ...RunOption) (fields.Fields, Result, error) {
	res, err := p.Text.Run(ctx, doc, constants.ModeLines, opts...)
	if err != nil {
		return fields.Fields{}, Result{}, err
	}
	out := fields.ExtractUnkeyed(res.Lines)
	p.log(ctx).Info("processor.fields.ok", "document", doc.Filename, "mode", "unkeyed", "fields", out.Len())
	return out, res, nil
}

// ExtractFields looks up each requested name in the recognized lines.
func (p *Processor) ExtractFields(ctx context.Context, doc document.Document, names []string, opts ...RunOption) (fields.Fields, Result, error) {
	res, err := p.Text.Run(ctx, doc, constants.ModeLines, opts...)
	if err != nil {
		return fields.Fields{}, Result{}, err
	}
	out := fields.Extract(res.Lines, names)
	found := 0
	for _, e := range out.Entries() {
		if e.Value != nil {
			found++
		}
	}
	p.log(ctx).Info("processor.fields.ok", "document", doc.Filename, "mode", "named", "requested", len(names), "found", found)
	return out, res, nil
}

func (p *Processor) log(ctx context.Context) *slog.Logger {
	return common.LoggerFromContext(ctx, p.Logger)
}
