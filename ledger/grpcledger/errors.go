package grpcledger

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/idgov/ledger"
)

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return status.Error(codes.NotFound, ledger.ErrNotFound.Error())
	case errors.Is(err, ledger.ErrInvalidPayload):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ledger.ErrVersionConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, ledger.ErrUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return ledger.ErrNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ledger.ErrInvalidPayload, st.Message())
	case codes.Aborted:
		return fmt.Errorf("%w: %s", ledger.ErrVersionConflict, st.Message())
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", ledger.ErrUnavailable, st.Message())
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	default:
		return err
	}
}
