package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/alisoncf/gscan/constants"
	"github.com/alisoncf/gscan/internal/app"
	"github.com/alisoncf/gscan/internal/common"
	"github.com/alisoncf/gscan/internal/fields"
	"github.com/alisoncf/gscan/internal/ingest"
	"github.com/alisoncf/gscan/internal/pipeline"
)

type output struct {
	Documento string         `json:"documento"`
	Texto     *string        `json:"texto,omitempty"`
	Extraido  *fields.Fields `json:"extraido,omitempty"`
	Metodo    string         `json:"metodo"`
	Paginas   int            `json:"paginas_ocr"`
}

func main() {
	var (
		mode       = flag.String("mode", "text", "text | extract | fields")
		fieldList  = flag.String("fields", "", "comma-separated field names (mode=fields)")
		profile    = flag.String("profile", "", "fast | accurate (default from config)")
		configPath = flag.String("config", "", "optional YAML config file")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: gscan [flags] <file.pdf|png|jpg>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := common.LoadConfigFile(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	var opts []pipeline.RunOption
	if *profile != "" {
		p, err := constants.ParseProfile(*profile)
		if err != nil {
			logger.Error("invalid -profile", "error", err)
			os.Exit(2)
		}
		opts = append(opts, pipeline.WithProfile(p))
	}
	names := fields.ParseFieldList(*fieldList)
	if *mode == "fields" && len(names) == 0 {
		logger.Error("-fields is required with -mode fields")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout)
	defer cancel()

	a, err := app.New(ctx, cfg, nil, logger)
	if err != nil {
		logger.Error("failed to start ocr engine", "error", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	doc, err := ingest.Load(flag.Arg(0))
	if err != nil {
		logger.Error("failed to read document", "error", err)
		os.Exit(1)
	}

	out := output{Documento: doc.Filename}
	var res pipeline.Result
	switch *mode {
	case "text":
		res, err = a.Processor.Transcribe(ctx, doc, opts...)
		out.Texto = &res.Text
	case "extract":
		var f fields.Fields
		f, res, err = a.Processor.ExtractPairs(ctx, doc, opts...)
		out.Extraido = &f
	case "fields":
		var f fields.Fields
		f, res, err = a.Processor.ExtractFields(ctx, doc, names, opts...)
		out.Extraido = &f
	default:
		logger.Error("unknown -mode", "mode", *mode)
		os.Exit(2)
	}
	if err != nil {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"error": common.ErrorMessage(err)})
		logger.Error("extraction failed", "document", doc.Filename, "code", common.ErrorCode(err), "error", err)
		os.Exit(1)
	}
	out.Metodo = res.Method
	out.Paginas = res.OCRPages

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("write output", "error", err)
		os.Exit(1)
	}
}
