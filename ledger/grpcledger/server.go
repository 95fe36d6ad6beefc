package grpcledger

import (
	"context"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/idgov/codec"
	"xdao.co/idgov/ledger"
)

// Server exposes a ledger.Client over the Ledger gRPC service.
type Server struct {
	UnimplementedLedgerServer
	Ledger ledger.Client
	Log    zerolog.Logger
}

func (s *Server) GetObject(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Ledger == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing ledger")
	}
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "object id is required")
	}
	obj, err := s.Ledger.GetObject(ctx, in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	b, err := codec.Marshal(obj)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode object failed")
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) GetEpoch(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.UInt64Value, error) {
	if s == nil || s.Ledger == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing ledger")
	}
	e, err := s.Ledger.GetEpoch(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.UInt64(e), nil
}

func (s *Server) Submit(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Ledger == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing ledger")
	}
	fx, err := s.Ledger.Submit(ctx, in.GetValue())
	if err != nil {
		s.Log.Warn().Err(err).Int("bytes", len(in.GetValue())).Msg("submit rejected")
		return nil, mapErr(err)
	}
	b, err := codec.Marshal(fx)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode effects failed")
	}
	s.Log.Debug().Str("tx", fx.TxDigest).Bool("success", fx.Status.Success).Str("code", fx.Status.Code).Msg("submitted")
	return wrapperspb.Bytes(b), nil
}
