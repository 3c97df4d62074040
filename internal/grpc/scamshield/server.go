// Package scamshield exposes message scoring over gRPC. Requests and
// responses are google.protobuf.Struct values carrying the same JSON
// shapes as the REST API.
package scamshield

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "scamshield/internal/domain/errors"
	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/phoneintel"
	"scamshield/pkg/logger"
)

const (
	ServiceName        = "scamshield.v1.ScamShield"
	scoreMessageMethod = "/" + ServiceName + "/ScoreMessage"
)

// Scorer produces a ScanResult for one input
type Scorer interface {
	Score(ctx context.Context, in models.ScanInput) (*models.ScanResult, error)
}

// ScamShieldServer is the service implementation contract
type ScamShieldServer interface {
	ScoreMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the ScamShield service for grpc.Server
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScamShieldServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ScoreMessage", Handler: scoreMessageHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scamshield/v1/scamshield.proto",
}

func scoreMessageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScamShieldServer).ScoreMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: scoreMessageMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScamShieldServer).ScoreMessage(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server implements ScamShieldServer on top of the risk scorer
type Server struct {
	scorer Scorer
	logger *logger.Logger
}

// NewServer creates a new gRPC server
func NewServer(scorer Scorer, log *logger.Logger) *Server {
	return &Server{
		scorer: scorer,
		logger: log.WithComponent("grpc-server"),
	}
}

// Register registers the server with a gRPC server
func (s *Server) Register(grpcServer *grpc.Server) {
	grpcServer.RegisterService(&ServiceDesc, s)
}

// ScoreMessage scores {message, phone?, sender_name?, business_type?}
func (s *Server) ScoreMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := models.ScanInput{
		Text:         stringField(req, "message"),
		Phone:        stringField(req, "phone"),
		SenderName:   stringField(req, "sender_name"),
		BusinessType: stringField(req, "business_type"),
	}
	if in.Text == "" {
		return nil, status.Error(codes.InvalidArgument, "message is required")
	}
	if in.Phone != "" && !phoneintel.ValidFormat(in.Phone) {
		return nil, status.Error(codes.InvalidArgument, "phone number format is invalid")
	}

	result, err := s.scorer.Score(ctx, in)
	if err != nil {
		return nil, toStatus(err, s.logger)
	}

	out, err := toStruct(result)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode scan result")
		return nil, status.Error(codes.Internal, "failed to encode result")
	}
	return out, nil
}

// ScoreMessage calls the ScamShield service over conn
func ScoreMessage(ctx context.Context, conn grpc.ClientConnInterface, in models.ScanInput, opts ...grpc.CallOption) (*models.ScanResult, error) {
	req, err := structpb.NewStruct(map[string]any{
		"message":       in.Text,
		"phone":         in.Phone,
		"sender_name":   in.SenderName,
		"business_type": in.BusinessType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp := new(structpb.Struct)
	if err := conn.Invoke(ctx, scoreMessageMethod, req, resp, opts...); err != nil {
		return nil, err
	}

	data, err := json.Marshal(resp.AsMap())
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	var result models.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

func stringField(s *structpb.Struct, name string) string {
	if s == nil {
		return ""
	}
	if v, ok := s.GetFields()[name]; ok {
		return v.GetStringValue()
	}
	return ""
}

// toStruct round-trips through JSON so the payload matches the REST body
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func toStatus(err error, log *logger.Logger) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		log.Error().Err(err).Msg("scoring failed")
		return status.Error(codes.Internal, "internal error")
	}
	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		return status.Error(codes.InvalidArgument, appErr.Message)
	case apperrors.ErrorTypeNotFound:
		return status.Error(codes.NotFound, appErr.Message)
	case apperrors.ErrorTypeConflict:
		return status.Error(codes.AlreadyExists, appErr.Message)
	case apperrors.ErrorTypeUnauthorized:
		return status.Error(codes.Unauthenticated, appErr.Message)
	case apperrors.ErrorTypePermission:
		return status.Error(codes.PermissionDenied, appErr.Message)
	default:
		log.Error().Err(err).Msg("scoring failed")
		return status.Error(codes.Internal, "internal error")
	}
}

// UnaryLogger logs every unary call with its outcome
func UnaryLogger(log *logger.Logger) grpc.UnaryServerInterceptor {
	log = log.WithComponent("grpc")
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info().
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("rpc completed")
		return resp, err
	}
}
