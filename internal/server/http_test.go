package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alisoncf/gscan/internal/common"
)

func newTestHandler(maxUpload int64) http.Handler {
	cfg := common.ServerConfig{MaxUploadBytes: maxUpload, RequestTimeout: time.Minute}
	return NewHTTPServer(stubExtractor{}, cfg, nil).Handler()
}

func upload(t *testing.T, path, filename, content string, values map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write([]byte(content))
	}
	for k, v := range values {
		_ = mw.WriteField(k, v)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHTTPEndpoints(t *testing.T) {
	const doc = "Nome: Ana\nCPF: 123\nlinha solta"
	tests := []struct {
		name     string
		path     string
		filename string
		content  string
		values   map[string]string
		status   int
		body     string
	}{
		{
			name: "transcribe", path: "/transcribe", filename: "scan.png", content: doc,
			status: http.StatusOK,
			body:   `{"documento":"scan.png","texto":"Nome: Ana\nCPF: 123\nlinha solta"}`,
		},
		{
			name: "extract unkeyed", path: "/extract", filename: "scan.pdf", content: doc,
			status: http.StatusOK,
			body:   `{"documento":"scan.pdf","extraido":{"nome":"Ana","cpf":"123","field_1":"linha solta"}}`,
		},
		{
			name: "extract fields", path: "/extract_fields", filename: "scan.jpg", content: doc,
			values: map[string]string{"fields": " nome, rg ,CPF", "profile": "fast"},
			status: http.StatusOK,
			body:   `{"documento":"scan.jpg","extraido":{"nome":"Ana","rg":null,"CPF":"123"}}`,
		},
		{
			name: "unsupported format", path: "/transcribe", filename: "notes.txt", content: doc,
			status: http.StatusUnsupportedMediaType,
			body:   `{"error":"Formato não suportado. Use PDF ou imagem."}`,
		},
		{
			name: "engine failure", path: "/transcribe", filename: "engine.png", content: doc,
			status: http.StatusInternalServerError,
			body:   `{"error":"Ocorreu um erro no OCR: OCR_ENGINE_FAILED: tesseract exited: ocr engine failure"}`,
		},
		{
			name: "invalid image", path: "/extract", filename: "broken.png", content: doc,
			status: http.StatusBadRequest,
		},
		{
			name: "missing fields", path: "/extract_fields", filename: "scan.png", content: doc,
			values: map[string]string{"fields": " , "},
			status: http.StatusBadRequest,
		},
		{
			name: "bad profile", path: "/transcribe", filename: "scan.png", content: doc,
			values: map[string]string{"profile": "turbo"},
			status: http.StatusBadRequest,
		},
		{
			name: "empty file", path: "/transcribe", filename: "scan.png", content: "",
			status: http.StatusBadRequest,
		},
		{
			name: "no file", path: "/transcribe",
			status: http.StatusBadRequest,
		},
		{
			name: "panic", path: "/transcribe", filename: "panic.png", content: doc,
			status: http.StatusInternalServerError,
		},
	}

	h := newTestHandler(1 << 20)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, upload(t, tt.path, tt.filename, tt.content, tt.values))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.status, rec.Body)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("content type = %q", ct)
			}
			if rec.Header().Get("X-Request-Id") == "" {
				t.Error("missing X-Request-Id")
			}
			if tt.body != "" && strings.TrimSpace(rec.Body.String()) != tt.body {
				t.Errorf("body = %s\nwant  %s", rec.Body, tt.body)
			}
			if tt.status != http.StatusOK {
				var e errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil || e.Error == "" {
					t.Errorf("error payload = %s (%v)", rec.Body, err)
				}
			}
		})
	}
}

func TestHTTPUploadTooLarge(t *testing.T) {
	h := newTestHandler(64)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "/transcribe", "big.png", strings.Repeat("x", 4096), nil))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestHTTPRequestIDPropagates(t *testing.T) {
	h := newTestHandler(1 << 20)
	req := upload(t, "/transcribe", "a.png", "x", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}
}

func TestHTTPHealthAndRouting(t *testing.T) {
	h := newTestHandler(1 << 20)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transcribe", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /transcribe = %d, want 405", rec.Code)
	}
}
