package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alisoncf/gscan/internal/common"
	"github.com/alisoncf/gscan/internal/fields"
)

const requestIDMetadata = "x-request-id"

// GRPCServer implements ExtractionServiceServer on top of an Extractor.
type GRPCServer struct {
	extractor Extractor
	logger    *slog.Logger
	timeout   time.Duration
	maxUpload int64
	schemas   map[operation]*jsonschema.Schema
}

func NewGRPCServer(ex Extractor, cfg common.ServerConfig, logger *slog.Logger) (*GRPCServer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &GRPCServer{
		extractor: ex,
		logger:    logger,
		timeout:   cfg.RequestTimeout,
		maxUpload: cfg.MaxUploadBytes,
		schemas:   schemas,
	}, nil
}

// NewServer builds a grpc.Server with the extraction service, the standard
// health service (SERVING) and reflection registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	base := []grpc.ServerOption{grpc.ChainUnaryInterceptor(s.intercept)}
	if s.maxUpload > 0 {
		// base64 inflates the payload by 4/3; leave room for the envelope.
		base = append(base, grpc.MaxRecvMsgSize(int(s.maxUpload*4/3)+(1<<20)))
	}
	gs := grpc.NewServer(append(base, opts...)...)

	RegisterExtractionServiceServer(gs, s)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ExtractionServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(gs)
	return gs, hs
}

func (s *GRPCServer) Transcribe(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.serve(ctx, opTranscribe, in)
}

func (s *GRPCServer) Extract(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.serve(ctx, opExtract, in)
}

func (s *GRPCServer) ExtractFields(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.serve(ctx, opExtractFields, in)
}

func (s *GRPCServer) serve(ctx context.Context, op operation, in *structpb.Struct) (*structpb.Struct, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	log := common.LoggerFromContext(ctx, s.logger)

	req, err := s.decode(op, in)
	if err != nil {
		log.Warn("invalid request", "op", op, "error", err)
		return nil, common.InvalidArgumentError(err.Error())
	}
	resp, err := execute(ctx, s.extractor, op, req)
	if err != nil {
		log.Error("request failed", "op", op, "document", req.Filename, "error", err)
		return nil, grpcError(err)
	}
	out, err := toStruct(resp)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

// decode validates the struct against the operation schema and unpacks it.
func (s *GRPCServer) decode(op operation, in *structpb.Struct) (request, error) {
	m := in.AsMap()
	if err := s.schemas[op].Validate(m); err != nil {
		return request{}, fmt.Errorf("invalid request: %w", err)
	}
	str := func(key string) string {
		v, _ := m[key].(string)
		return v
	}
	content, err := base64.StdEncoding.DecodeString(str("content"))
	if err != nil {
		return request{}, fmt.Errorf("content is not valid base64: %w", err)
	}
	return request{
		Filename: str("filename"),
		Content:  content,
		Fields:   fields.ParseFieldList(str("fields")),
		Profile:  str("profile"),
	}, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

// intercept attaches a request id and logger to every call, logs the outcome
// and turns handler panics into Internal errors.
func (s *GRPCServer) intercept(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	start := time.Now()
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDMetadata); len(v) > 0 {
			id = v[0]
		}
	}
	if id == "" {
		id = common.NewRequestID()
	}
	log := s.logger.With("request_id", id, "method", info.FullMethod)
	ctx = common.WithLogger(common.WithRequestID(ctx, id), log)
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadata, id))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("handler panic", "panic", rec, "stack", string(debug.Stack()))
			err = common.InternalError(common.ErrorMessage(fmt.Errorf("%w: %v", common.ErrInternal, rec)))
		}
	}()

	resp, err = handler(ctx, req)
	if err == nil {
		log.Info("rpc ok", "duration_ms", time.Since(start).Milliseconds())
	}
	return resp, err
}
