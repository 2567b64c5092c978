package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// DirectoryScanner walks a tree and lists the documents a batch should process.
type DirectoryScanner struct {
	logger *slog.Logger
}

func NewDirectoryScanner(logger *slog.Logger) *DirectoryScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryScanner{logger: logger}
}

// Scan walks root, filters by includeExts (or the supported set), skips
// hidden entries if requested and hashes each match so repeated content is
// flagged as Deduplicated. Results are in lexical path order.
func (s *DirectoryScanner) Scan(ctx context.Context, root string, includeExts []string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	exts := extSet(includeExts)
	seen := map[string]string{}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Scanned++
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if _, ok := exts[strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))]; !ok {
			return nil
		}
		stats.Matched++

		sum, size, err := hashFile(path)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		res := FileResult{Path: path, Size: size, HashHex: sum}
		if first, dup := seen[sum]; dup {
			res.Deduplicated = true
			stats.Deduplicated++
			s.logger.Debug("duplicate content", "path", path, "first", first)
		} else {
			seen[sum] = path
		}
		results = append(results, res)
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	s.logger.Info("directory scanned",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
