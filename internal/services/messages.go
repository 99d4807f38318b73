package services

import (
	"errors"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/datasets"
)

// UserMessage turns a setup or input error into text fit for an operator.
func UserMessage(err error) string {
	var verr *common.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Reason
	case errors.Is(err, common.ErrorModelNotTrained):
		return "Model not found! Please train the model first."
	case errors.Is(err, common.ErrorResourceUnavailable):
		return "Cannot access webcam."
	case errors.Is(err, datasets.ErrNoDatasetDir):
		return "Dataset folder not found! Please register users first."
	case errors.Is(err, datasets.ErrNoUsers):
		return "No users found. Please register at least one user."
	case errors.Is(err, datasets.ErrNoFaces):
		return "No face data found. Try re-registering users."
	case errors.Is(err, errNoSamples):
		return "No images captured. Registration cancelled."
	case errors.Is(err, common.ErrorAlreadyExists):
		return "User already exists!"
	case errors.Is(err, common.ErrorNotFound):
		return "User not found."
	case errors.Is(err, common.ErrorUnauthorized):
		return "Wrong password."
	case errors.Is(err, common.ErrorRateLimited):
		return "Too many attempts. Please wait and try again."
	case errors.Is(err, common.ErrorInvalidSession):
		return "Session is invalid or expired."
	}
	return "Internal error: " + err.Error()
}
