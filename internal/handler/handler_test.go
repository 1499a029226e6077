package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crcportal/api/internal/model"
)

// ============================================================================
// Mock ClassService
// ============================================================================

type mockClassService struct {
	createClassFunc func(ctx context.Context, req model.CreateClassRequest) (*model.Class, error)
	getClassFunc    func(ctx context.Context, id string) (*model.Class, error)
	listClassesFunc func(ctx context.Context) ([]model.Class, error)
	updateClassFunc func(ctx context.Context, id string, req model.UpdateClassRequest) (*model.Class, error)
	deleteClassFunc func(ctx context.Context, id string) error
}

func (m *mockClassService) CreateClass(ctx context.Context, req model.CreateClassRequest) (*model.Class, error) {
	if m.createClassFunc != nil {
		return m.createClassFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockClassService) GetClass(ctx context.Context, id string) (*model.Class, error) {
	if m.getClassFunc != nil {
		return m.getClassFunc(ctx, id)
	}
	return newTestClass(id), nil
}

func (m *mockClassService) ListClasses(ctx context.Context) ([]model.Class, error) {
	if m.listClassesFunc != nil {
		return m.listClassesFunc(ctx)
	}
	return nil, nil
}

func (m *mockClassService) UpdateClass(ctx context.Context, id string, req model.UpdateClassRequest) (*model.Class, error) {
	if m.updateClassFunc != nil {
		return m.updateClassFunc(ctx, id, req)
	}
	return nil, nil
}

func (m *mockClassService) DeleteClass(ctx context.Context, id string) error {
	if m.deleteClassFunc != nil {
		return m.deleteClassFunc(ctx, id)
	}
	return nil
}

// ============================================================================
// Test Helpers
// ============================================================================

func newTestClass(id string) *model.Class {
	now := time.Now()
	return &model.Class{
		ID:        id,
		Name:      "Intro to Leadership",
		Level:     model.GradeFreshman,
		CreatedOn: now,
		UpdatedOn: now,
	}
}

func newTestStudent(id string, classID *string) model.Student {
	now := time.Now()
	return model.Student{
		ID:        id,
		FirstName: "Grace",
		LastName:  "Hopper",
		Grade:     model.GradeJunior,
		ClassID:   classID,
		CreatedOn: now,
		UpdatedOn: now,
	}
}

func strPtr(s string) *string {
	return &s
}

func makeJSONRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type routeRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// serve routes req through a mux so path values are populated.
func serve(h routeRegistrar, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	var pd model.ProblemDetails
	if err := json.NewDecoder(rr.Body).Decode(&pd); err != nil {
		t.Fatalf("failed to decode problem details: %v", err)
	}
	return pd
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}
