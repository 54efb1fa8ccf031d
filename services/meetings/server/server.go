package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xilidan/meetings/pkg/jwt"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/services/meetings/entity"
	"github.com/xilidan/meetings/services/meetings/rpc"
	"github.com/xilidan/meetings/services/meetings/usecase"
)

type Server struct {
	usecase   usecase.Usecase
	log       *slog.Logger
	jwtSecret string
}

func NewServerOptions(usecase usecase.Usecase, log *slog.Logger, jwtSecret string) *Server {
	return &Server{
		usecase:   usecase,
		log:       log,
		jwtSecret: jwtSecret,
	}
}

func (s *Server) NewServer(opts ...grpc.ServerOption) (*grpc.Server, error) {
	opts = append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(rpc.MaxMessageSize),
		grpc.MaxSendMsgSize(rpc.MaxMessageSize),
		grpc.ChainUnaryInterceptor(s.logInterceptor, s.authInterceptor),
	}, opts...)

	srv := grpc.NewServer(opts...)
	rpc.RegisterMeetingServiceServer(srv, s)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthSrv)

	return srv, nil
}

func (s *Server) Ingest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in rpc.IngestRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	m, err := s.usecase.Ingest(ctx, &entity.IngestRequest{
		Title:    in.Title,
		Source:   in.Source,
		Filename: in.Filename,
		MimeType: in.MimeType,
		Audio:    in.Audio,
	})
	if err != nil {
		return nil, rpc.ToStatus(err, nil)
	}
	return encode(m)
}

func (s *Server) Process(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := decodeID(req)
	if err != nil {
		return nil, err
	}

	m, err := s.usecase.Process(ctx, id)
	if err != nil {
		// a ServiceError still returns the failed meeting
		return nil, rpc.ToStatus(err, m)
	}
	return encode(m)
}

func (s *Server) Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := decodeID(req)
	if err != nil {
		return nil, err
	}

	m, err := s.usecase.Get(ctx, id)
	if err != nil {
		return nil, rpc.ToStatus(err, nil)
	}
	return encode(m)
}

func (s *Server) ListRecent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in rpc.ListRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	meetings, err := s.usecase.ListRecent(ctx, in.Limit)
	if err != nil {
		return nil, rpc.ToStatus(err, nil)
	}
	return encode(rpc.ListResponse{Meetings: meetings})
}

func (s *Server) ExportTasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := decodeID(req)
	if err != nil {
		return nil, err
	}

	tasks, err := s.usecase.ExportTasks(ctx, id)
	if err != nil {
		return nil, rpc.ToStatus(err, nil)
	}
	return encode(rpc.ExportResponse{Tasks: tasks})
}

func decodeID(req *structpb.Struct) (string, error) {
	var in rpc.IDRequest
	if err := rpc.Decode(req, &in); err != nil {
		return "", status.Error(codes.InvalidArgument, err.Error())
	}
	if strings.TrimSpace(in.ID) == "" {
		return "", rpc.ToStatus(entity.NewValidationError("id is required"), nil)
	}
	return in.ID, nil
}

func encode(v any) (*structpb.Struct, error) {
	out, err := rpc.Encode(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) logInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	log := s.log.With(slog.String("method", info.FullMethod))
	ctx = logger.WithContext(ctx, log)

	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	attrs := []any{slog.String("code", code.String()), slog.Duration("duration", time.Since(start))}
	switch code {
	case codes.OK:
		log.Debug("rpc served", attrs...)
	case codes.Internal, codes.Unknown:
		log.Error("rpc failed", append(attrs, slog.String("error", err.Error()))...)
	default:
		log.Info("rpc rejected", append(attrs, slog.String("error", err.Error()))...)
	}
	return resp, err
}

func (s *Server) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.jwtSecret == "" || strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/") {
		return handler(ctx, req)
	}

	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "access denied")
	}
	token, err := jwt.ParseBearer(values[0])
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "access denied")
	}
	subject, err := jwt.ParseUserID(ctx, token, s.jwtSecret)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "access denied")
	}

	ctx = logger.WithContext(ctx, logger.With(ctx, slog.String("caller", subject)))
	return handler(ctx, req)
}
