// Package document holds the immutable input handed to the extraction pipeline.
package document

import (
	"path/filepath"

	"github.com/alisoncf/gscan/constants"
)

// Document is an uploaded file: its original name and raw bytes.
type Document struct {
	Filename string
	Content  []byte
}

func New(filename string, content []byte) Document {
	return Document{Filename: filename, Content: content}
}

// Ext returns the normalized extension without the dot ("pdf", "png", ...).
func (d Document) Ext() string {
	return constants.NormalizeExt(filepath.Ext(d.Filename))
}

// Format maps the extension to PDF, IMAGE or UNKNOWN.
func (d Document) Format() constants.FileFormat {
	return constants.MapExtToFormat(d.Ext())
}
