// Package ocr recognizes text on preprocessed page images.
//
// An Engine is constructed once at startup and shared by every request;
// implementations must be safe for concurrent use. Recognition options are
// passed per call so different documents can use different segmentation
// settings against the same engine.
package ocr

import (
	"context"
	"image"
	"strings"

	"github.com/alisoncf/gscan/constants"
)

// Engine runs OCR on one page at a time.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, page *image.Gray, opts Options) (Recognition, error)
	Close() error
}

// Options configures a single Recognize call. Zero PSM/OEM leave the
// engine defaults in place.
type Options struct {
	Mode constants.OutputMode
	PSM  int
	OEM  int
}

// Recognition is the text found on one page. Lines is only filled in
// ModeLines and holds the non-blank lines in reading order.
type Recognition struct {
	Text  string
	Lines []string
}

// Page segmentation / engine mode used by the accurate profile:
// LSTM + legacy default, single uniform block of text.
const (
	AccurateOEM = 3
	AccuratePSM = 6
)

// OptionsFor maps a profile to engine options.
func OptionsFor(profile constants.Profile, mode constants.OutputMode) Options {
	opts := Options{Mode: mode}
	if profile == constants.ProfileAccurate {
		opts.OEM = AccurateOEM
		opts.PSM = AccuratePSM
	}
	return opts
}

// newRecognition normalizes raw engine output and fills Lines when requested.
func newRecognition(raw string, mode constants.OutputMode) Recognition {
	text := Normalize(raw)
	rec := Recognition{Text: text}
	if mode == constants.ModeLines {
		rec.Lines = SplitLines(text)
	}
	return rec
}

// SplitLines returns the trimmed non-blank lines of text in order.
func SplitLines(text string) []string {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}
