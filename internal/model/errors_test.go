package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ============================================================================
// Error() Interface Tests
// ============================================================================

func TestProblemDetails_Error_ReturnsFormattedMessage(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{
		Status: http.StatusNotFound,
		Title:  "Not Found",
		Detail: "student not found",
	}

	errMsg := pd.Error()

	if !strings.Contains(errMsg, "404") {
		t.Errorf("error message should contain status code, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "Not Found") {
		t.Errorf("error message should contain title, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "student not found") {
		t.Errorf("error message should contain detail, got: %s", errMsg)
	}
}

// ============================================================================
// WriteJSON Tests
// ============================================================================

func TestProblemDetails_WriteJSON_SetsContentTypeAndStatus(t *testing.T) {
	t.Parallel()

	pd := NewNotFoundError("class")
	rr := httptest.NewRecorder()

	pd.WriteJSON(rr)

	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected Content-Type 'application/problem+json', got %q", ct)
	}
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestProblemDetails_WriteJSON_EncodesConflicts(t *testing.T) {
	t.Parallel()

	pd := NewMembershipConflictError([]ConflictEntry{
		{StudentID: "student:b", CurrentClassID: "crc_class:y", CurrentClassName: "Junior CRC"},
	})
	rr := httptest.NewRecorder()

	pd.WriteJSON(rr)

	var result ProblemDetails
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if result.Status != http.StatusConflict {
		t.Errorf("expected status 409, got %d", result.Status)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflicts))
	}
	if result.Conflicts[0].CurrentClassName != "Junior CRC" {
		t.Errorf("expected class name 'Junior CRC', got %q", result.Conflicts[0].CurrentClassName)
	}
	if !strings.Contains(result.Detail, "1 student(s)") {
		t.Errorf("detail should count conflicts, got %q", result.Detail)
	}
}

// ============================================================================
// Constructor Tests
// ============================================================================

func TestNewValidationError_SingleField_ReturnsCorrectValues(t *testing.T) {
	t.Parallel()

	pd := NewValidationError([]FieldError{{Field: "add_ids", Message: "select at least one student"}})

	if pd.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, pd.Status)
	}
	if pd.Code != ErrCodeValidation {
		t.Errorf("expected code %d, got %d", ErrCodeValidation, pd.Code)
	}
	if !strings.Contains(pd.Detail, "add_ids") {
		t.Errorf("detail should contain field name, got %q", pd.Detail)
	}
}

func TestNewValidationError_MultipleFields_SummarizesCount(t *testing.T) {
	t.Parallel()

	pd := NewValidationError([]FieldError{
		{Field: "name", Message: "required"},
		{Field: "level", Message: "invalid"},
		{Field: "description", Message: "too long"},
	})

	if !strings.Contains(pd.Detail, "2 more errors") {
		t.Errorf("detail should mention count of additional errors, got %q", pd.Detail)
	}
}

func TestNewValidationError_EmptyErrors_ReturnsDefaultMessage(t *testing.T) {
	t.Parallel()

	pd := NewValidationError(nil)

	if pd.Detail != "One or more fields failed validation" {
		t.Errorf("expected default detail message, got %q", pd.Detail)
	}
}

func TestNewPreconditionFailedError_ReturnsCorrectValues(t *testing.T) {
	t.Parallel()

	pd := NewPreconditionFailedError("roster changed")

	if pd.Status != http.StatusPreconditionFailed {
		t.Errorf("expected status %d, got %d", http.StatusPreconditionFailed, pd.Status)
	}
	if pd.Code != ErrCodeStale {
		t.Errorf("expected code %d, got %d", ErrCodeStale, pd.Code)
	}
}

func TestNewRolledBackError_CarriesMutationID(t *testing.T) {
	t.Parallel()

	pd := NewRolledBackError("mut-1", "database unavailable")

	if pd.Status != http.StatusBadGateway {
		t.Errorf("expected status %d, got %d", http.StatusBadGateway, pd.Status)
	}
	if pd.MutationID != "mut-1" {
		t.Errorf("expected mutation id 'mut-1', got %q", pd.MutationID)
	}
	if !strings.Contains(pd.Type, "rolled-back") {
		t.Errorf("expected type to contain 'rolled-back', got %q", pd.Type)
	}
}

func TestNewInternalError_EmptyDetail_UsesDefault(t *testing.T) {
	t.Parallel()

	pd := NewInternalError("")

	if pd.Detail != "An unexpected error occurred" {
		t.Errorf("expected default detail message, got %q", pd.Detail)
	}
}

func TestErrorConstructors_UseProblemTypeBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pd   *ProblemDetails
	}{
		{"not found", NewNotFoundError("student")},
		{"conflict", NewConflictError("duplicate")},
		{"bad request", NewBadRequestError("bad json")},
		{"unavailable", NewServiceUnavailableError("database down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !strings.HasPrefix(tt.pd.Type, problemTypeBase) {
				t.Errorf("expected type to start with %q, got %q", problemTypeBase, tt.pd.Type)
			}
		})
	}
}
