package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/MikhailRaia/golinks/internal/proto"
	"github.com/MikhailRaia/golinks/internal/service"
	"github.com/MikhailRaia/golinks/internal/storage"
)

type ShortenerGRPCServer struct {
	proto.UnimplementedShortenerServer
	urlService URLService
	baseURL    string
}

func NewShortenerGRPCServer(urlService URLService, baseURL string) *ShortenerGRPCServer {
	return &ShortenerGRPCServer{
		urlService: urlService,
		baseURL:    baseURL,
	}
}

func (s *ShortenerGRPCServer) Shorten(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "url is required")
	}

	code, err := s.urlService.Shorten(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, service.ErrInvalidURL) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		log.Error().Err(err).Str("target", req.GetValue()).Msg("Failed to shorten URL over gRPC")
		return nil, status.Errorf(codes.Internal, "failed to shorten URL: %v", err)
	}

	return wrapperspb.String(service.ShortURL(s.baseURL, code)), nil
}

func (s *ShortenerGRPCServer) Expand(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "code is required")
	}

	targetURL, err := s.urlService.Resolve(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "url not found")
		}
		return nil, status.Errorf(codes.Internal, "failed to expand URL: %v", err)
	}

	return wrapperspb.String(targetURL), nil
}
