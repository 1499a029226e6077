package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode represents API error codes
type ErrorCode int

const (
	// Resource errors (3xxx)
	ErrCodeNotFound      ErrorCode = 3001
	ErrCodeAlreadyExists ErrorCode = 3002
	ErrCodeConflict      ErrorCode = 3003
	ErrCodeMembership    ErrorCode = 3004
	ErrCodeStale         ErrorCode = 3005

	// Validation errors (4xxx)
	ErrCodeValidation   ErrorCode = 4001
	ErrCodeInvalidInput ErrorCode = 4002
	ErrCodeRateLimited  ErrorCode = 4003

	// Internal errors (5xxx)
	ErrCodeInternal    ErrorCode = 5001
	ErrCodeDatabase    ErrorCode = 5002
	ErrCodeRolledBack  ErrorCode = 5003
	ErrCodeUnavailable ErrorCode = 5004
)

const problemTypeBase = "https://crc-api.crcportal.org/errors/"

// ProblemDetails represents RFC 9457 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	// Extension fields
	Code       ErrorCode       `json:"code,omitempty"`
	Conflicts  []ConflictEntry `json:"conflicts,omitempty"`
	MutationID string          `json:"mutation_id,omitempty"`
}

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// WriteJSON writes the problem details as JSON response
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Common error constructors

func NewNotFoundError(resource string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + "not-found",
		Title:  "Not Found",
		Status: http.StatusNotFound,
		Detail: fmt.Sprintf("%s not found", resource),
		Code:   ErrCodeNotFound,
	}
}

func NewValidationError(errors []FieldError) *ProblemDetails {
	// Build detailed message from field errors
	detail := "One or more fields failed validation"
	if len(errors) > 0 {
		detail = fmt.Sprintf("%s: %s", errors[0].Field, errors[0].Message)
		if len(errors) > 1 {
			detail = fmt.Sprintf("%s (and %d more errors)", detail, len(errors)-1)
		}
	}
	return &ProblemDetails{
		Type:   problemTypeBase + "validation",
		Title:  "Validation Error",
		Status: http.StatusUnprocessableEntity,
		Detail: detail,
		Code:   ErrCodeValidation,
		Errors: errors,
	}
}

func NewConflictError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + "conflict",
		Title:  "Conflict",
		Status: http.StatusConflict,
		Detail: detail,
		Code:   ErrCodeConflict,
	}
}

func NewAlreadyExistsError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + "already-exists",
		Title:  "Already Exists",
		Status: http.StatusConflict,
		Detail: detail,
		Code:   ErrCodeAlreadyExists,
	}
}

// NewMembershipConflictError lists the students that already belong to
// another class. Clients resubmit without them (or with exclude_conflicts).
func NewMembershipConflictError(conflicts []ConflictEntry) *ProblemDetails {
	detail := fmt.Sprintf("%d student(s) already belong to another class", len(conflicts))
	return &ProblemDetails{
		Type:      problemTypeBase + "membership-conflict",
		Title:     "Membership Conflict",
		Status:    http.StatusConflict,
		Detail:    detail,
		Code:      ErrCodeMembership,
		Conflicts: conflicts,
	}
}

func NewPreconditionFailedError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + "stale-roster",
		Title:  "Precondition Failed",
		Status: http.StatusPreconditionFailed,
		Detail: detail,
		Code:   ErrCodeStale,
	}
}

// NewRolledBackError reports a membership change that was applied
// optimistically, failed to persist and has been reverted.
func NewRolledBackError(mutationID, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemTypeBase + "rolled-back",
		Title:      "Membership Change Rolled Back",
		Status:     http.StatusBadGateway,
		Detail:     detail,
		Code:       ErrCodeRolledBack,
		MutationID: mutationID,
	}
}

func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return &ProblemDetails{
		Type:   problemTypeBase + "internal",
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: detail,
		Code:   ErrCodeInternal,
	}
}

func NewServiceUnavailableError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + "unavailable",
		Title:  "Service Unavailable",
		Status: http.StatusServiceUnavailable,
		Detail: detail,
		Code:   ErrCodeUnavailable,
	}
}

func NewBadRequestError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + "bad-request",
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
		Detail: detail,
		Code:   ErrCodeInvalidInput,
	}
}

func NewRateLimitError(retryAfter int) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + "rate-limited",
		Title:  "Too Many Requests",
		Status: http.StatusTooManyRequests,
		Detail: fmt.Sprintf("Too many changes. Retry after %d seconds", retryAfter),
		Code:   ErrCodeRateLimited,
	}
}
