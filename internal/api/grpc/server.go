package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/adamanr/worklog_service/internal/controllers"
	"github.com/adamanr/worklog_service/internal/entity"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

type Server struct {
	deps        *controllers.Dependens
	Controllers *controllers.Controllers
}

// NewServer create new server.
func NewServer(deps *controllers.Dependens) *Server {
	return &Server{
		deps:        deps,
		Controllers: controllers.NewControllers(deps),
	}
}

var _ ActivityServiceServer = &Server{}

// NewGRPCServer registers the activity and health services on a new grpc.Server.
func NewGRPCServer(s *Server, opts ...grpc.ServerOption) *grpc.Server {
	srv := grpc.NewServer(opts...)
	RegisterActivityServiceServer(srv, s)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthServer)

	return srv
}

// Run serves on addr until ctx is cancelled, then stops gracefully.
func Run(ctx context.Context, srv *grpc.Server, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// SubmitActivity expects {employeeId?, date, description}.
func (s *Server) SubmitActivity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.checkAuthUser(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}

	var in entity.SubmitActivityRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, toStatusError(err)
	}

	activity, err := s.Controllers.ActivityController.Submit(ctx, actor, in)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "Error submitting activity", slog.String("error", err.Error()))
		return nil, toStatusError(err)
	}

	return s.grpcResponse(ctx, map[string]any{"activity": activity})
}

// TransitionActivity expects {id, status: approved|rejected, remarks?}.
func (s *Server) TransitionActivity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.checkAuthUser(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}

	var in struct {
		ID      string                `json:"id"`
		Status  entity.ActivityStatus `json:"status"`
		Remarks string                `json:"remarks"`
	}
	if err := fromStruct(req, &in); err != nil {
		return nil, toStatusError(err)
	}

	activity, err := s.Controllers.ActivityController.Transition(ctx, actor, in.ID, in.Status, in.Remarks)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "Error reviewing activity", slog.String("id", in.ID), slog.String("error", err.Error()))
		return nil, toStatusError(err)
	}

	return s.grpcResponse(ctx, map[string]any{"activity": activity})
}

// ListActivities accepts the same fields as the GET /api/activities query string.
func (s *Server) ListActivities(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.checkAuthUser(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}

	var params entity.ListActivitiesParams
	if err := fromStruct(req, &params); err != nil {
		return nil, toStatusError(err)
	}

	page, err := s.Controllers.ActivityController.ListFor(ctx, actor, &params)
	if err != nil {
		return nil, toStatusError(err)
	}

	return s.grpcResponse(ctx, map[string]any{
		"activities": page.Items,
		"pagination": page.Pagination,
	})
}

// GetActivity expects {id}.
func (s *Server) GetActivity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.checkAuthUser(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}

	id := req.GetFields()["id"].GetStringValue()
	activity, err := s.Controllers.ActivityController.GetActivity(ctx, actor, id)
	if err != nil {
		return nil, toStatusError(err)
	}

	return s.grpcResponse(ctx, map[string]any{"activity": activity})
}
