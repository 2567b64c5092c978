package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alisoncf/gscan/constants"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	OCR      OCRConfig      `yaml:"ocr"`
	PDF      PDFConfig      `yaml:"pdf"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string        `yaml:"http_addr"`
	GRPCAddr       string        `yaml:"grpc_addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine      string            `yaml:"engine"` // tesseract | gosseract
	Language    string            `yaml:"language"`
	Profile     constants.Profile `yaml:"profile"`
	Tesseract   string            `yaml:"tesseract_bin"`
	TessdataDir string            `yaml:"tessdata_dir"`
}

// PDFConfig holds rasterization configuration
type PDFConfig struct {
	Pdftoppm string `yaml:"pdftoppm_bin"`
	DPI      int    `yaml:"dpi"`
	MaxPages int    `yaml:"max_pages"` // 0 = no limit
}

// PipelineConfig holds preprocessing and concurrency limits
type PipelineConfig struct {
	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`
	Workers   int `yaml:"workers"`
}

// Engine names accepted by OCRConfig.Engine.
const (
	EngineTesseract = "tesseract"
	EngineGosseract = "gosseract"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       ":8000",
			GRPCAddr:       ":8080",
			RequestTimeout: 2 * time.Minute,
			MaxUploadBytes: 32 << 20,
		},
		OCR: OCRConfig{
			Engine:    EngineTesseract,
			Language:  "por",
			Profile:   constants.ProfileAccurate,
			Tesseract: "tesseract",
		},
		PDF: PDFConfig{
			Pdftoppm: "pdftoppm",
			DPI:      200,
		},
		Pipeline: PipelineConfig{
			MaxWidth:  1200,
			MaxHeight: 1200,
			Workers:   4,
		},
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	cfg := DefaultConfig()
	ApplyEnv(cfg)
	return cfg
}

// ApplyEnv overrides cfg with any environment variables that are set.
func ApplyEnv(cfg *Config) {
	cfg.Server.HTTPAddr = getEnv("HTTP_ADDR", cfg.Server.HTTPAddr)
	cfg.Server.GRPCAddr = getEnv("GRPC_ADDR", cfg.Server.GRPCAddr)
	cfg.Server.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	cfg.Server.MaxUploadBytes = getEnvAsInt64("MAX_UPLOAD_BYTES", cfg.Server.MaxUploadBytes)

	cfg.OCR.Engine = getEnv("OCR_ENGINE", cfg.OCR.Engine)
	cfg.OCR.Language = getEnv("OCR_LANG", cfg.OCR.Language)
	cfg.OCR.Profile = constants.Profile(getEnv("OCR_PROFILE", string(cfg.OCR.Profile)))
	cfg.OCR.Tesseract = getEnv("TESSERACT_BIN", cfg.OCR.Tesseract)
	cfg.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", cfg.OCR.TessdataDir)

	cfg.PDF.Pdftoppm = getEnv("PDFTOPPM_BIN", cfg.PDF.Pdftoppm)
	cfg.PDF.DPI = getEnvAsInt("PDF_DPI", cfg.PDF.DPI)
	cfg.PDF.MaxPages = getEnvAsInt("PDF_MAX_PAGES", cfg.PDF.MaxPages)

	cfg.Pipeline.MaxWidth = getEnvAsInt("MAX_WIDTH", cfg.Pipeline.MaxWidth)
	cfg.Pipeline.MaxHeight = getEnvAsInt("MAX_HEIGHT", cfg.Pipeline.MaxHeight)
	cfg.Pipeline.Workers = getEnvAsInt("OCR_WORKERS", cfg.Pipeline.Workers)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.OCR.Language == "" {
		return NewAppError(CodeConfig, "OCR_LANG is required", ErrInvalidInput)
	}
	if !c.OCR.Profile.Valid() {
		return NewAppError(CodeConfig, fmt.Sprintf("OCR_PROFILE %q must be fast or accurate", c.OCR.Profile), ErrInvalidInput)
	}
	if c.OCR.Engine != EngineTesseract && c.OCR.Engine != EngineGosseract {
		return NewAppError(CodeConfig, fmt.Sprintf("OCR_ENGINE %q must be tesseract or gosseract", c.OCR.Engine), ErrInvalidInput)
	}
	if c.PDF.DPI <= 0 {
		return NewAppError(CodeConfig, "PDF_DPI must be positive", ErrInvalidInput)
	}
	if c.PDF.MaxPages < 0 {
		return NewAppError(CodeConfig, "PDF_MAX_PAGES must not be negative", ErrInvalidInput)
	}
	if c.Pipeline.MaxWidth <= 0 || c.Pipeline.MaxHeight <= 0 {
		return NewAppError(CodeConfig, "MAX_WIDTH and MAX_HEIGHT must be positive", ErrInvalidInput)
	}
	if c.Pipeline.Workers <= 0 {
		return NewAppError(CodeConfig, "OCR_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
