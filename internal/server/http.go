package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/alisoncf/gscan/internal/common"
	"github.com/alisoncf/gscan/internal/fields"
)

const requestIDHeader = "X-Request-Id"

// HTTPServer serves the multipart upload API.
type HTTPServer struct {
	extractor Extractor
	logger    *slog.Logger
	maxUpload int64
	timeout   time.Duration
}

func NewHTTPServer(ex Extractor, cfg common.ServerConfig, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPServer{
		extractor: ex,
		logger:    logger,
		maxUpload: cfg.MaxUploadBytes,
		timeout:   cfg.RequestTimeout,
	}
}

// Handler returns the routed API wrapped in request-id and recovery middleware.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transcribe", s.handle(opTranscribe))
	mux.HandleFunc("POST /extract", s.handle(opExtract))
	mux.HandleFunc("POST /extract_fields", s.handle(opExtractFields))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s.withRequestID(s.recoverer(mux))
}

func (s *HTTPServer) handle(op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		log := common.LoggerFromContext(ctx, s.logger)

		req, err := s.parseUpload(w, r)
		if err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			log.Warn("bad upload", "op", op, "error", err)
			writeJSON(w, status, errorResponse{Error: err.Error()})
			return
		}

		resp, err := execute(ctx, s.extractor, op, req)
		if err != nil {
			code := httpStatus(err)
			log.Error("request failed", "op", op, "document", req.Filename, "status", code, "error", err,
				"duration_ms", time.Since(start).Milliseconds())
			writeJSON(w, code, errorResponse{Error: userMessage(err)})
			return
		}
		log.Info("request ok", "op", op, "document", req.Filename, "duration_ms", time.Since(start).Milliseconds())
		writeJSON(w, http.StatusOK, resp)
	}
}

// parseUpload reads the multipart form: file in "file", optional "fields"
// and "profile" values.
func (s *HTTPServer) parseUpload(w http.ResponseWriter, r *http.Request) (request, error) {
	if s.maxUpload > 0 {
		if r.ContentLength > s.maxUpload {
			return request{}, &http.MaxBytesError{Limit: s.maxUpload}
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return request{}, fmt.Errorf("parse multipart form: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		return request{}, fmt.Errorf("form file %q: %w", "file", err)
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return request{}, fmt.Errorf("read upload: %w", err)
	}
	return request{
		Filename: header.Filename,
		Content:  content,
		Fields:   fields.ParseFieldList(r.FormValue("fields")),
		Profile:  r.FormValue("profile"),
	}, nil
}

func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = common.NewRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := common.WithRequestID(r.Context(), id)
		ctx = common.WithLogger(ctx, s.logger.With("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HTTPServer) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				common.LoggerFromContext(r.Context(), s.logger).Error("handler panic",
					"panic", rec, "stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, errorResponse{
					Error: common.ErrorMessage(fmt.Errorf("%w: %v", common.ErrInternal, rec)),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
