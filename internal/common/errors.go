package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")
)

// Extraction failures. Each one aborts the whole document.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidImage      = errors.New("invalid image")
	ErrMalformedDocument = errors.New("malformed document")
	ErrRasterization     = errors.New("rasterization failed")
	ErrOCREngine         = errors.New("ocr engine failure")
)

// Stable error codes.
const (
	CodeConfig            = "CONFIG_ERROR"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeInvalidImage      = "INVALID_IMAGE"
	CodeMalformedDocument = "MALFORMED_DOCUMENT"
	CodeRasterization     = "RASTERIZATION_FAILED"
	CodeOCREngine         = "OCR_ENGINE_FAILED"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// kind joins a taxonomy sentinel with the underlying cause so both match errors.Is.
func kind(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

func UnsupportedFormatError(ext string) error {
	return NewAppError(CodeUnsupportedFormat, fmt.Sprintf("extension %q is not supported", ext), ErrUnsupportedFormat)
}

func InvalidImageError(message string, cause error) error {
	return NewAppError(CodeInvalidImage, message, kind(ErrInvalidImage, cause))
}

func MalformedDocumentError(message string, cause error) error {
	return NewAppError(CodeMalformedDocument, message, kind(ErrMalformedDocument, cause))
}

func RasterizationError(message string, cause error) error {
	return NewAppError(CodeRasterization, message, kind(ErrRasterization, cause))
}

func OCREngineError(message string, cause error) error {
	return NewAppError(CodeOCREngine, message, kind(ErrOCREngine, cause))
}

// User-facing messages.
const (
	MsgUnsupportedFormat = "Formato não suportado. Use PDF ou imagem."
	msgOCRFailure        = "Ocorreu um erro no OCR: "
)

// ErrorMessage renders err for API clients.
func ErrorMessage(err error) string {
	if errors.Is(err, ErrUnsupportedFormat) {
		return MsgUnsupportedFormat
	}
	return msgOCRFailure + err.Error()
}

// ErrorCode returns the AppError code carried by err, or "" when there is none.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}
