// Package grpc exposes link creation and resolution over gRPC.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/atinyakov/amethyst/internal/app/service"
	"github.com/atinyakov/amethyst/internal/intercepters"
	"github.com/atinyakov/amethyst/internal/metrics"
	"github.com/atinyakov/amethyst/internal/storage"
)

// Server wraps the gRPC server and its dependencies.
type Server struct {
	grpcServer *grpc.Server
	port       int
	logger     *zap.Logger
}

// New builds a gRPC server with logging and panic recovery interceptors.
func New(baseURL string, logger *zap.Logger, svc service.LinkServiceIface, m *metrics.Metrics, port int) *Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(intercepters.RecoveryOptions(logger)...),
			logging.UnaryServerInterceptor(intercepters.InterceptorLogger(logger),
				logging.WithLogOnEvents(logging.FinishCall),
			),
		),
	)

	RegisterLinkServiceServer(s, &LinkServer{
		Service: svc,
		BaseURL: baseURL,
		Metrics: m,
		Logger:  logger,
	})

	return &Server{
		grpcServer: s,
		port:       port,
		logger:     logger,
	}
}

// Start listens on the configured port and serves until stopped.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		s.logger.Error("gRPC server failed to listen", zap.Error(err))
		return err
	}

	return s.Serve(lis)
}

// Serve serves on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// GracefulStop shuts down the server gracefully.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// LinkServer implements LinkServiceServer on top of the link service.
type LinkServer struct {
	Service service.LinkServiceIface
	BaseURL string
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func (s *LinkServer) Create(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	fields := req.GetFields()

	dest, ok := fields["url"].GetKind().(*structpb.Value_StringValue)
	if !ok {
		s.fail(service.ReasonMalformedRequest, nil)
		return nil, status.Error(codes.InvalidArgument, `"url" must be a string`)
	}

	var slug string
	if v, present := fields["path"]; present {
		p, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			s.fail(service.ReasonMalformedRequest, nil)
			return nil, status.Error(codes.InvalidArgument, `"path" must be a string`)
		}
		slug = p.StringValue
	}

	link, err := s.Service.CreateLink(ctx, dest.StringValue, slug)
	if err != nil {
		reason := service.Reason(err)
		s.fail(reason, err)
		return nil, status.Error(createCode(reason), reason)
	}

	if s.Metrics != nil {
		s.Metrics.LinksCreated.Inc()
	}
	return wrapperspb.String(s.BaseURL + "/" + link.Slug), nil
}

func (s *LinkServer) Resolve(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "slug is required")
	}

	link, err := s.Service.GetLinkBySlug(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "link not found")
		}
		return nil, status.Error(codes.Internal, "lookup failed")
	}

	return wrapperspb.String(link.Destination), nil
}

func (s *LinkServer) fail(reason string, err error) {
	if s.Metrics != nil {
		s.Metrics.CreateFailures.WithLabelValues(reason).Inc()
	}
	if s.Logger != nil {
		s.Logger.Error("create link failed", zap.String("reason", reason), zap.Error(err))
	}
}

func createCode(reason string) codes.Code {
	switch reason {
	case service.ReasonInvalidURL:
		return codes.InvalidArgument
	case service.ReasonSlugTaken:
		return codes.AlreadyExists
	case service.ReasonKeyspaceExhausted:
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}
