package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/crcportal/api/internal/membership"
	"github.com/crcportal/api/internal/model"
	"github.com/crcportal/api/internal/service"
)

// ============================================================================
// Mock MembershipService
// ============================================================================

type mockMembershipService struct {
	getClassRosterFunc   func(ctx context.Context, classID string) (*model.ClassRoster, error)
	listCandidatesFunc   func(ctx context.Context, classID string) ([]model.Student, error)
	checkConflictsFunc   func(ctx context.Context, classID string, studentIDs []string) (*model.CheckConflictsResponse, error)
	updateMembershipFunc func(ctx context.Context, classID string, req model.UpdateMembershipRequest) (*model.UpdateMembershipResponse, error)
	syncFunc             func(ctx context.Context) (*model.SyncResponse, error)
}

func (m *mockMembershipService) GetClassRoster(ctx context.Context, classID string) (*model.ClassRoster, error) {
	if m.getClassRosterFunc != nil {
		return m.getClassRosterFunc(ctx, classID)
	}
	return &model.ClassRoster{Class: *newTestClass(classID), Members: []model.Student{}, Version: testVersion}, nil
}

func (m *mockMembershipService) ListCandidates(ctx context.Context, classID string) ([]model.Student, error) {
	if m.listCandidatesFunc != nil {
		return m.listCandidatesFunc(ctx, classID)
	}
	return nil, nil
}

func (m *mockMembershipService) CheckConflicts(ctx context.Context, classID string, studentIDs []string) (*model.CheckConflictsResponse, error) {
	if m.checkConflictsFunc != nil {
		return m.checkConflictsFunc(ctx, classID, studentIDs)
	}
	return &model.CheckConflictsResponse{Conflicts: []model.ConflictEntry{}}, nil
}

func (m *mockMembershipService) UpdateMembership(ctx context.Context, classID string, req model.UpdateMembershipRequest) (*model.UpdateMembershipResponse, error) {
	if m.updateMembershipFunc != nil {
		return m.updateMembershipFunc(ctx, classID, req)
	}
	return committedResponse(classID, req), nil
}

func (m *mockMembershipService) Sync(ctx context.Context) (*model.SyncResponse, error) {
	if m.syncFunc != nil {
		return m.syncFunc(ctx)
	}
	return &model.SyncResponse{Students: 0, Version: testVersion}, nil
}

const (
	testVersion  = "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"
	otherVersion = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func committedResponse(classID string, req model.UpdateMembershipRequest) *model.UpdateMembershipResponse {
	return &model.UpdateMembershipResponse{
		Outcome: model.MutationOutcome{
			MutationID: "m-1",
			State:      "committed",
			ClassID:    classID,
			Added:      req.AddIDs,
			Removed:    req.RemoveIDs,
		},
		Roster: model.ClassRoster{Class: *newTestClass(classID), Members: []model.Student{}, Version: otherVersion},
	}
}

// ============================================================================
// Roster Tests
// ============================================================================

func TestRoster_SetsETag(t *testing.T) {
	t.Parallel()

	h := NewMembershipHandler(&mockMembershipService{})
	rr := serve(h, makeJSONRequest(http.MethodGet, "/v1/classes/crc_class:a/students", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("ETag"); got != `"`+testVersion+`"` {
		t.Errorf("expected quoted version ETag, got %q", got)
	}
}

func TestRoster_NotReady_ServiceUnavailable(t *testing.T) {
	t.Parallel()

	h := NewMembershipHandler(&mockMembershipService{
		getClassRosterFunc: func(ctx context.Context, classID string) (*model.ClassRoster, error) {
			return nil, service.ErrRosterNotReady
		},
	})

	rr := serve(h, makeJSONRequest(http.MethodGet, "/v1/classes/crc_class:a/students", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rr.Code)
	}
}

func TestCandidates_ReturnsCollection(t *testing.T) {
	t.Parallel()

	var gotClass string
	h := NewMembershipHandler(&mockMembershipService{
		listCandidatesFunc: func(ctx context.Context, classID string) ([]model.Student, error) {
			gotClass = classID
			return []model.Student{newTestStudent("crc_student:s1", nil)}, nil
		},
	})

	rr := serve(h, makeJSONRequest(http.MethodGet, "/v1/classes/crc_class:a/candidates", nil))

	var resp CollectionResponse
	decodeInto(t, rr, &resp)
	if resp.Count != 1 || gotClass != "crc_class:a" {
		t.Errorf("expected one candidate for crc_class:a, got %d for %q", resp.Count, gotClass)
	}
}

// ============================================================================
// CheckConflicts Tests
// ============================================================================

func TestCheckConflicts_PassesIDs(t *testing.T) {
	t.Parallel()

	var got []string
	h := NewMembershipHandler(&mockMembershipService{
		checkConflictsFunc: func(ctx context.Context, classID string, ids []string) (*model.CheckConflictsResponse, error) {
			got = ids
			return &model.CheckConflictsResponse{Conflicts: []model.ConflictEntry{{
				StudentID:        "crc_student:s2",
				CurrentClassID:   "crc_class:b",
				CurrentClassName: "Class B",
			}}}, nil
		},
	})

	rr := serve(h, makeJSONRequest(http.MethodPost, "/v1/classes/crc_class:a/conflicts",
		model.CheckConflictsRequest{StudentIDs: []string{"crc_student:s1", "crc_student:s2"}}))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 ids passed through, got %v", got)
	}

	var resp model.CheckConflictsResponse
	decodeData(t, rr, &resp)
	if len(resp.Conflicts) != 1 || resp.Conflicts[0].CurrentClassName != "Class B" {
		t.Errorf("unexpected conflicts %+v", resp.Conflicts)
	}
}

func TestCheckConflicts_EmptyList_Validation(t *testing.T) {
	t.Parallel()

	h := NewMembershipHandler(&mockMembershipService{})
	rr := serve(h, makeJSONRequest(http.MethodPost, "/v1/classes/crc_class:a/conflicts", `{"student_ids":[]}`))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rr.Code)
	}
}

// ============================================================================
// Update Tests
// ============================================================================

func TestUpdate_Committed_SetsNewETag(t *testing.T) {
	t.Parallel()

	var got model.UpdateMembershipRequest
	h := NewMembershipHandler(&mockMembershipService{
		updateMembershipFunc: func(ctx context.Context, classID string, req model.UpdateMembershipRequest) (*model.UpdateMembershipResponse, error) {
			got = req
			return committedResponse(classID, req), nil
		},
	})

	rr := serve(h, makeJSONRequest(http.MethodPut, "/v1/classes/crc_class:a/students", model.UpdateMembershipRequest{
		AddIDs:    []string{"crc_student:s1"},
		RemoveIDs: []string{"crc_student:s3"},
	}))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(got.AddIDs) != 1 || len(got.RemoveIDs) != 1 {
		t.Errorf("unexpected request %+v", got)
	}
	if rr.Header().Get("ETag") != `"`+otherVersion+`"` {
		t.Errorf("expected new version ETag, got %q", rr.Header().Get("ETag"))
	}

	var resp model.UpdateMembershipResponse
	decodeData(t, rr, &resp)
	if resp.Outcome.State != "committed" || resp.Outcome.MutationID != "m-1" {
		t.Errorf("unexpected outcome %+v", resp.Outcome)
	}
}

func TestUpdate_IfMatch_SetsExpectedVersion(t *testing.T) {
	t.Parallel()

	var got model.UpdateMembershipRequest
	h := NewMembershipHandler(&mockMembershipService{
		updateMembershipFunc: func(ctx context.Context, classID string, req model.UpdateMembershipRequest) (*model.UpdateMembershipResponse, error) {
			got = req
			return committedResponse(classID, req), nil
		},
	})

	req := makeJSONRequest(http.MethodPut, "/v1/classes/crc_class:a/students", model.UpdateMembershipRequest{AddIDs: []string{"crc_student:s1"}})
	req.Header.Set("If-Match", `W/"`+testVersion+`"`)
	rr := serve(h, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.ExpectedVersion != testVersion {
		t.Errorf("expected version from If-Match, got %q", got.ExpectedVersion)
	}
}

func TestUpdate_IfMatchDisagrees_BadRequest(t *testing.T) {
	t.Parallel()

	h := NewMembershipHandler(&mockMembershipService{})
	req := makeJSONRequest(http.MethodPut, "/v1/classes/crc_class:a/students", model.UpdateMembershipRequest{
		AddIDs:          []string{"crc_student:s1"},
		ExpectedVersion: testVersion,
	})
	req.Header.Set("If-Match", `"`+otherVersion+`"`)
	rr := serve(h, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestUpdate_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"nothing selected", `{}`},
		{"blank id", `{"add_ids":[" "]}`},
		{"malformed version", `{"add_ids":["crc_student:s1"],"expected_version":"v1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			h := NewMembershipHandler(&mockMembershipService{
				updateMembershipFunc: func(ctx context.Context, classID string, req model.UpdateMembershipRequest) (*model.UpdateMembershipResponse, error) {
					called = true
					return nil, nil
				},
			})

			rr := serve(h, makeJSONRequest(http.MethodPut, "/v1/classes/crc_class:a/students", tt.body))

			if rr.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected 422, got %d", rr.Code)
			}
			if called {
				t.Error("service should not be called")
			}
		})
	}
}

func TestUpdate_ServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		status     int
		code       model.ErrorCode
		bodySubstr string
	}{
		{
			name: "conflict",
			err: &membership.ConflictError{
				ClassID: "crc_class:a",
				Conflicts: []model.ConflictEntry{{
					StudentID:        "crc_student:s2",
					CurrentClassID:   "crc_class:b",
					CurrentClassName: "Class B",
				}},
				Pending: []string{"crc_student:s2"},
			},
			status:     http.StatusConflict,
			code:       model.ErrCodeMembership,
			bodySubstr: "Class B",
		},
		{
			name:       "stale",
			err:        service.ErrRosterStale,
			status:     http.StatusPreconditionFailed,
			code:       model.ErrCodeStale,
			bodySubstr: "stale-roster",
		},
		{
			name:       "rolled back",
			err:        &membership.RemoteError{MutationID: "m-9", Err: errors.New("write timeout")},
			status:     http.StatusBadGateway,
			code:       model.ErrCodeRolledBack,
			bodySubstr: "m-9",
		},
		{
			name:   "invalid change",
			err:    &membership.ValidationError{Fields: []model.FieldError{{Field: "add_ids", Message: "unknown student crc_student:zz"}}},
			status: http.StatusUnprocessableEntity,
			code:   model.ErrCodeValidation,
		},
		{
			name:   "class missing",
			err:    service.ErrClassNotFound,
			status: http.StatusNotFound,
			code:   model.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewMembershipHandler(&mockMembershipService{
				updateMembershipFunc: func(ctx context.Context, classID string, req model.UpdateMembershipRequest) (*model.UpdateMembershipResponse, error) {
					return nil, tt.err
				},
			})

			rr := serve(h, makeJSONRequest(http.MethodPut, "/v1/classes/crc_class:a/students",
				model.UpdateMembershipRequest{AddIDs: []string{"crc_student:s2"}}))

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			if rr.Header().Get("ETag") != "" {
				t.Error("failed updates must not carry an ETag")
			}
			body := rr.Body.String()
			if tt.bodySubstr != "" && !strings.Contains(body, tt.bodySubstr) {
				t.Errorf("expected body to contain %q, got %s", tt.bodySubstr, body)
			}
			var pd model.ProblemDetails
			if err := json.Unmarshal([]byte(body), &pd); err != nil {
				t.Fatalf("failed to decode problem details: %v", err)
			}
			if pd.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, pd.Code)
			}
		})
	}
}

// ============================================================================
// Sync Tests
// ============================================================================

func TestSync_ReturnsCounts(t *testing.T) {
	t.Parallel()

	h := NewMembershipHandler(&mockMembershipService{
		syncFunc: func(ctx context.Context) (*model.SyncResponse, error) {
			return &model.SyncResponse{Students: 42, Version: testVersion}, nil
		},
	})

	rr := serve(h, makeJSONRequest(http.MethodPost, "/v1/roster/sync", nil))

	var resp model.SyncResponse
	decodeData(t, rr, &resp)
	if resp.Students != 42 {
		t.Errorf("expected 42 students, got %d", resp.Students)
	}
}

// ============================================================================
// ETag Helper Tests
// ============================================================================

func TestUnquoteETag(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		`"abc"`:   "abc",
		`W/"abc"`: "abc",
		` "abc" `: "abc",
		"abc":     "abc",
		"":        "",
	}
	for in, want := range tests {
		if got := unquoteETag(in); got != want {
			t.Errorf("unquoteETag(%q) = %q, want %q", in, got, want)
		}
	}
}
