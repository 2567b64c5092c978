// Package ingest discovers documents on the local filesystem for batch runs.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alisoncf/gscan/internal/document"
)

// FileResult is the per-file scan outcome.
type FileResult struct {
	Path         string
	Size         int64
	HashHex      string
	Deduplicated bool // same content as an earlier file in this scan
	Err          string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Load reads path into a Document named after the file's base name.
func Load(path string) (document.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return document.New(filepath.Base(path), b), nil
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
