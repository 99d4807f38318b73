package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC codes. Internal errors are logged
// by the caller and never leak their text.
func toStatus(err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, common.ErrorValidation):
		code = codes.InvalidArgument
	case errors.Is(err, common.ErrorNotFound):
		code = codes.NotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		code = codes.AlreadyExists
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrorInvalidSession):
		code = codes.Unauthenticated
	case errors.Is(err, common.ErrorRateLimited):
		code = codes.ResourceExhausted
	case errors.Is(err, common.ErrorModelNotTrained), errors.Is(err, common.ErrorNoTrainingData):
		code = codes.FailedPrecondition
	case errors.Is(err, common.ErrorResourceUnavailable):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}
	if code == codes.Internal {
		return status.Error(code, "internal error")
	}
	return status.Error(code, services.UserMessage(err))
}
