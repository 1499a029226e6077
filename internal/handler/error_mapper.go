package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crcportal/api/internal/database"
	"github.com/crcportal/api/internal/membership"
	"github.com/crcportal/api/internal/model"
	"github.com/crcportal/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var (
		validationErr *membership.ValidationError
		conflictErr   *membership.ConflictError
		remoteErr     *membership.RemoteError
	)

	switch {
	// ===== Membership workflow =====
	case errors.As(err, &validationErr):
		return model.NewValidationError(validationErr.Fields)
	case errors.As(err, &conflictErr):
		return model.NewMembershipConflictError(conflictErr.Conflicts)
	case errors.As(err, &remoteErr):
		return model.NewRolledBackError(remoteErr.MutationID,
			"the change could not be saved and has been rolled back")
	case errors.Is(err, service.ErrRosterStale):
		return model.NewPreconditionFailedError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrClassNotFound):
		return model.NewNotFoundError("class")
	case errors.Is(err, service.ErrStudentNotFound):
		return model.NewNotFoundError("student")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrClassNameExists):
		return model.NewAlreadyExistsError(err.Error())
	case errors.Is(err, service.ErrClassNotEmpty):
		return model.NewConflictError(err.Error())

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrEmptyUpdate):
		return model.NewValidationError([]model.FieldError{{Field: "body", Message: err.Error()}})

	// ===== Unavailable → 503 =====
	case errors.Is(err, service.ErrRosterNotReady):
		return model.NewServiceUnavailableError(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return model.NewServiceUnavailableError("timed out waiting for another roster change")
	case errors.Is(err, database.ErrConnection):
		pd := model.NewServiceUnavailableError("database unavailable")
		pd.Code = model.ErrCodeDatabase
		return pd

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}

// writeServiceError maps err and writes it. Server-side failures are logged
// with the request path.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	pd := MapServiceErrorWithContext(err, operation)
	if pd.Status >= http.StatusInternalServerError {
		slog.Error(operation+" failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	WriteError(w, pd)
}
