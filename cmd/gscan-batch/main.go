package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/alisoncf/gscan/constants"
	"github.com/alisoncf/gscan/internal/app"
	"github.com/alisoncf/gscan/internal/async"
	"github.com/alisoncf/gscan/internal/common"
	"github.com/alisoncf/gscan/internal/export"
	"github.com/alisoncf/gscan/internal/fields"
	"github.com/alisoncf/gscan/internal/ingest"
	"github.com/alisoncf/gscan/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory to process documents from (required)")
		out        = flag.String("out", "", "output XLSX file path (optional, defaults to <dir>/../gscan.xlsx)")
		fieldList  = flag.String("fields", "", "comma-separated field names; empty extracts unkeyed pairs")
		profile    = flag.String("profile", "", "fast | accurate (default from config)")
		configPath = flag.String("config", "", "optional YAML config file")
		workers    = flag.Int("workers", 2, "documents processed concurrently")
		timeout    = flag.Duration("timeout", 3*time.Minute, "per-document timeout")
		hidden     = flag.Bool("hidden", false, "include hidden files and directories")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "gscan.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfigFile(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	var opts []pipeline.RunOption
	if *profile != "" {
		p, err := constants.ParseProfile(*profile)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, pipeline.WithProfile(p))
	}
	names := fields.ParseFieldList(*fieldList)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, nil, logger)
	if err != nil {
		logger.Error("failed to start ocr engine", "error", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	files, stats, err := ingest.NewDirectoryScanner(logger).Scan(ctx, *dir, nil, !*hidden)
	if err != nil {
		logger.Error("failed to scan directory", "error", err)
		os.Exit(1)
	}

	var (
		mu   sync.Mutex
		rows = map[string]*export.Row{}
	)
	handle := func(ctx context.Context, job async.Job) error {
		doc, err := ingest.Load(job.Path)
		if err != nil {
			return err
		}
		var (
			f   fields.Fields
			res pipeline.Result
		)
		if len(names) > 0 {
			f, res, err = a.Processor.ExtractFields(ctx, doc, names, opts...)
		} else {
			f, res, err = a.Processor.ExtractPairs(ctx, doc, opts...)
		}
		if err != nil {
			return err
		}
		mu.Lock()
		rows[job.Path] = &export.Row{Method: res.Method, OCRPages: res.OCRPages, Fields: f}
		mu.Unlock()
		return nil
	}
	onDone := func(r async.JobResult) {
		mu.Lock()
		defer mu.Unlock()
		row, ok := rows[r.Job.Path]
		if !ok {
			row = &export.Row{}
			rows[r.Job.Path] = row
		}
		row.Document = relPath(*dir, r.Job.Path)
		row.Status = r.Status
		row.Duration = r.Duration
		if r.Err != nil {
			row.Error = common.ErrorMessage(r.Err)
		}
	}

	queue := async.NewProcessorQueue(handle, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(64),
		async.WithProcessTimeout(*timeout),
		async.WithResultHandler(onDone),
	)

	var skipped []string
	for _, f := range files {
		if f.Err != "" || f.Deduplicated {
			skipped = append(skipped, f.Path)
			continue
		}
		if err := queue.Enqueue(ctx, async.NewJob(f.Path)); err != nil {
			logger.Error("failed to enqueue", "path", f.Path, "error", err)
		}
	}
	queue.Shutdown(ctx)

	report := make([]export.Row, 0, len(rows))
	failures := 0
	for _, r := range rows {
		if r.Status == constants.JobStatusFailed {
			failures++
		}
		report = append(report, *r)
	}
	sort.Slice(report, func(i, j int) bool { return report[i].Document < report[j].Document })

	xlsx, err := export.NewService(logger).ExportBatchXLSX(ctx, report)
	if err != nil {
		logger.Error("failed to export report", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"matched", stats.Matched,
		"processed", len(report),
		"failures", failures,
		"skipped", len(skipped),
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Documents processed: %d\n", len(report))
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Skipped (duplicate or unreadable): %d\n", len(skipped))
	fmt.Printf("- Output: %s\n", *out)
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
