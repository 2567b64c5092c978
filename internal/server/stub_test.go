package server

import (
	"context"
	"strings"

	"github.com/alisoncf/gscan/constants"
	"github.com/alisoncf/gscan/internal/common"
	"github.com/alisoncf/gscan/internal/document"
	"github.com/alisoncf/gscan/internal/fields"
	"github.com/alisoncf/gscan/internal/pipeline"
)

// stubExtractor recognizes the upload content as text, one line per "\n".
// A few filenames trigger failures.
type stubExtractor struct{}

func (stubExtractor) run(doc document.Document) ([]string, error) {
	switch {
	case doc.Format() == constants.UNKNOWN:
		return nil, common.UnsupportedFormatError(doc.Ext())
	case strings.HasPrefix(doc.Filename, "panic"):
		panic("decoder exploded")
	case strings.HasPrefix(doc.Filename, "engine"):
		return nil, common.OCREngineError("tesseract exited", nil)
	case strings.HasPrefix(doc.Filename, "broken"):
		return nil, common.InvalidImageError("decode image", nil)
	}
	return strings.Split(string(doc.Content), "\n"), nil
}

func (s stubExtractor) Transcribe(_ context.Context, doc document.Document, _ ...pipeline.RunOption) (pipeline.Result, error) {
	lines, err := s.run(doc)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Result{Text: strings.Join(lines, "\n")}, nil
}

func (s stubExtractor) ExtractPairs(_ context.Context, doc document.Document, _ ...pipeline.RunOption) (fields.Fields, pipeline.Result, error) {
	lines, err := s.run(doc)
	if err != nil {
		return fields.Fields{}, pipeline.Result{}, err
	}
	return fields.ExtractUnkeyed(lines), pipeline.Result{Lines: lines}, nil
}

func (s stubExtractor) ExtractFields(_ context.Context, doc document.Document, names []string, _ ...pipeline.RunOption) (fields.Fields, pipeline.Result, error) {
	lines, err := s.run(doc)
	if err != nil {
		return fields.Fields{}, pipeline.Result{}, err
	}
	return fields.Extract(lines, names), pipeline.Result{Lines: lines}, nil
}
