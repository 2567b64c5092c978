// Package server exposes the extraction pipeline over HTTP and gRPC. Both
// transports share the request model, validation and response payloads
// defined here.
package server

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/alisoncf/gscan/constants"
	"github.com/alisoncf/gscan/internal/common"
	"github.com/alisoncf/gscan/internal/document"
	"github.com/alisoncf/gscan/internal/fields"
	"github.com/alisoncf/gscan/internal/pipeline"
)

// Extractor is the processing surface the transports call.
// *pipeline.Processor implements it.
type Extractor interface {
	Transcribe(ctx context.Context, doc document.Document, opts ...pipeline.RunOption) (pipeline.Result, error)
	ExtractPairs(ctx context.Context, doc document.Document, opts ...pipeline.RunOption) (fields.Fields, pipeline.Result, error)
	ExtractFields(ctx context.Context, doc document.Document, names []string, opts ...pipeline.RunOption) (fields.Fields, pipeline.Result, error)
}

type operation string

const (
	opTranscribe    operation = "transcribe"
	opExtract       operation = "extract"
	opExtractFields operation = "extract_fields"
)

// request is a decoded upload, whichever transport it came from.
type request struct {
	Filename string
	Content  []byte
	Fields   []string
	Profile  string
}

type transcribeResponse struct {
	Documento string `json:"documento"`
	Texto     string `json:"texto"`
}

type extractResponse struct {
	Documento string        `json:"documento"`
	Extraido  fields.Fields `json:"extraido"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (r request) validate(op operation) error {
	v := common.NewValidator().
		Field("filename", r.Filename, common.Required).
		Field("file", r.Content, common.Required).
		Field("profile", r.Profile, common.Profile)
	if op == opExtractFields {
		v.Field("fields", r.Fields, common.Required)
	}
	return v.Error()
}

// execute validates req and runs op, returning the response payload.
func execute(ctx context.Context, ex Extractor, op operation, req request) (any, error) {
	if err := req.validate(op); err != nil {
		return nil, err
	}
	var opts []pipeline.RunOption
	if req.Profile != "" {
		p, _ := constants.ParseProfile(req.Profile)
		opts = append(opts, pipeline.WithProfile(p))
	}
	doc := document.New(req.Filename, req.Content)

	switch op {
	case opTranscribe:
		res, err := ex.Transcribe(ctx, doc, opts...)
		if err != nil {
			return nil, err
		}
		return transcribeResponse{Documento: doc.Filename, Texto: res.Text}, nil
	case opExtract:
		out, _, err := ex.ExtractPairs(ctx, doc, opts...)
		if err != nil {
			return nil, err
		}
		return extractResponse{Documento: doc.Filename, Extraido: out}, nil
	case opExtractFields:
		out, _, err := ex.ExtractFields(ctx, doc, req.Fields, opts...)
		if err != nil {
			return nil, err
		}
		return extractResponse{Documento: doc.Filename, Extraido: out}, nil
	default:
		return nil, common.NewAppError("UNKNOWN_OPERATION", string(op), common.ErrInvalidInput)
	}
}

func isBadRequest(err error) bool {
	return errors.Is(err, common.ErrValidation) ||
		errors.Is(err, common.ErrInvalidInput) ||
		errors.Is(err, common.ErrInvalidImage) ||
		errors.Is(err, common.ErrMalformedDocument)
}

// userMessage is the error text sent to clients. Request problems are
// reported as is; pipeline failures get the OCR wording.
func userMessage(err error) string {
	if errors.Is(err, common.ErrValidation) {
		var v *common.AppError
		if errors.As(err, &v) {
			return v.Message
		}
	}
	return common.ErrorMessage(err)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case isBadRequest(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func grpcError(err error) error {
	msg := userMessage(err)
	switch {
	case errors.Is(err, common.ErrUnsupportedFormat), isBadRequest(err):
		return common.InvalidArgumentError(msg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, msg)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, msg)
	default:
		return common.InternalError(msg)
	}
}
