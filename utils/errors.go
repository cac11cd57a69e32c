package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error kinds surfaced by the ledger engine. All of these are deterministic:
// retrying the same request yields the same outcome, so the server never
// retries internally.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation_error"
	KindInvalidAllocation ErrorKind = "invalid_allocation"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindInvalidState      ErrorKind = "invalid_state"
	KindAlreadyFinalized  ErrorKind = "already_finalized"
	KindOverFunded        ErrorKind = "over_funded"
	KindDuplicateCycle    ErrorKind = "duplicate_cycle"
	KindNotFound          ErrorKind = "not_found"
)

type AppError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	// CurrentState lets the client resynchronize after an illegal transition
	CurrentState string `json:"current_state,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func Validationf(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func InvalidAllocationf(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindInvalidAllocation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorizedf(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func InvalidStatef(currentState, format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...), CurrentState: currentState}
}

func AlreadyFinalizedf(currentState, format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindAlreadyFinalized, Message: fmt.Sprintf(format, args...), CurrentState: currentState}
}

func OverFundedf(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindOverFunded, Message: fmt.Sprintf(format, args...)}
}

func DuplicateCyclef(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindDuplicateCycle, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func statusForKind(kind ErrorKind) int {
	switch kind {
	case KindValidation, KindInvalidAllocation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindAlreadyFinalized, KindOverFunded, KindDuplicateCycle:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps an error to the standard response envelope. AppErrors
// carry their own status; anything else is a 500.
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(statusForKind(appErr.Kind), APIResponse{
			Success: false,
			Message: appErr.Message,
			Data:    appErr,
		})
		return
	}
	InternalError(c, "Something went wrong")
}
