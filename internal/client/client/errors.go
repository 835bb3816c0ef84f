package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrUnauthorized    = common.ErrorUnauthorized
	ErrNotFound        = common.ErrorNotFound
	ErrAlreadyExists   = common.ErrorAlreadyExists
	ErrInvalidArgument = common.ErrValidation

	errSubscriptionClosed = errors.New("subscription closed by server")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var kind error
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		kind = ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		kind = ErrNotFound
	case codes.AlreadyExists:
		kind = ErrAlreadyExists
	case codes.InvalidArgument, codes.FailedPrecondition, codes.ResourceExhausted:
		kind = ErrInvalidArgument
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
	return common.WithMessage(kind, st.Message())
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}
