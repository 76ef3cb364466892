package report

import (
	"context"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"durasim/internal/cluster"
	"durasim/internal/config"
	"durasim/internal/placement"
)

// Code classifies err.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, cluster.ErrCapacityExhausted):
		return codes.ResourceExhausted
	case errors.Is(err, cluster.ErrInvalidFailureSetSize),
		errors.Is(err, cluster.ErrInvalidConfig),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, placement.ErrUnknownMode):
		return codes.InvalidArgument
	case errors.Is(err, cluster.ErrDuplicateRecord):
		return codes.AlreadyExists
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// Status converts err to a status carrying its code and message.
func Status(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	return status.New(Code(err), err.Error())
}

// ExitCode returns the process exit code for err: zero on success,
// otherwise the numeric status code.
func ExitCode(err error) int {
	return int(Code(err))
}
