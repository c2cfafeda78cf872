package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adamanr/worklog_service/internal/entity"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GetUserInfoFromMetadata get authorization from metadata.
func (s *Server) GetUserInfoFromMetadata(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", fmt.Errorf("missing metadata: %w", entity.ErrUnauthorized)
	}

	authorization := md.Get("authorization")
	if len(authorization) == 0 || authorization[0] == "" {
		return "", fmt.Errorf("missing authorization: %w", entity.ErrUnauthorized)
	}

	return authorization[0], nil
}

// checkAuthUser resolves the bearer token in metadata into an actor.
func (s *Server) checkAuthUser(ctx context.Context) (entity.Actor, error) {
	token, err := s.GetUserInfoFromMetadata(ctx)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "Error getting user info from metadata", slog.String("error", err.Error()))
		return entity.Actor{}, err
	}

	claims, err := s.Controllers.AuthController.CheckUserToken(ctx, token)
	if err != nil {
		return entity.Actor{}, err
	}

	return claims.Actor(), nil
}

// fromStruct decodes a Struct message into dest through its JSON form.
func fromStruct(in *structpb.Struct, dest any) error {
	raw, err := in.MarshalJSON()
	if err != nil {
		return entity.NewValidationError("Invalid request message")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return entity.NewValidationError("Invalid request message: " + err.Error())
	}
	return nil
}

// toStruct converts any JSON-serialisable value into a Struct message.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return out, nil
}

// grpcResponse wraps data in a Struct message.
func (s *Server) grpcResponse(ctx context.Context, data any) (*structpb.Struct, error) {
	out, err := toStruct(data)
	if err != nil {
		s.deps.Logger.ErrorContext(ctx, "Error converting response", slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// toStatusError maps a domain error to a gRPC status.
func toStatusError(err error) error {
	switch {
	case errors.Is(err, entity.ErrValidation):
		msgs := entity.ValidationMessages(err)
		if len(msgs) == 0 {
			return status.Error(codes.InvalidArgument, "validation failed")
		}
		return status.Error(codes.InvalidArgument, strings.Join(msgs, "; "))
	case errors.Is(err, entity.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, entity.ErrForbidden):
		return status.Error(codes.PermissionDenied, "access denied")
	case errors.Is(err, entity.ErrNotFound):
		return status.Error(codes.NotFound, "resource not found")
	case errors.Is(err, entity.ErrConflict):
		return status.Error(codes.AlreadyExists, "resource already exists")
	case errors.Is(err, entity.ErrInvalidState):
		return status.Error(codes.FailedPrecondition, "activity is no longer pending")
	case errors.Is(err, entity.ErrUnavailable):
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
