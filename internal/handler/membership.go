package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/crcportal/api/internal/model"
)

// MembershipService is what the membership handler needs from the roster.
type MembershipService interface {
	GetClassRoster(ctx context.Context, classID string) (*model.ClassRoster, error)
	ListCandidates(ctx context.Context, classID string) ([]model.Student, error)
	CheckConflicts(ctx context.Context, classID string, studentIDs []string) (*model.CheckConflictsResponse, error)
	UpdateMembership(ctx context.Context, classID string, req model.UpdateMembershipRequest) (*model.UpdateMembershipResponse, error)
	Sync(ctx context.Context) (*model.SyncResponse, error)
}

// MembershipHandler handles class roster endpoints
type MembershipHandler struct {
	svc MembershipService
}

// NewMembershipHandler creates a new membership handler
func NewMembershipHandler(svc MembershipService) *MembershipHandler {
	return &MembershipHandler{svc: svc}
}

// RegisterRoutes registers roster routes
func (h *MembershipHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/classes/{classId}/students", h.Roster)
	mux.HandleFunc("PUT /v1/classes/{classId}/students", h.Update)
	mux.HandleFunc("GET /v1/classes/{classId}/candidates", h.Candidates)
	mux.HandleFunc("POST /v1/classes/{classId}/conflicts", h.CheckConflicts)
	mux.HandleFunc("POST /v1/roster/sync", h.Sync)
}

// Roster handles GET /v1/classes/{classId}/students
// The roster version is returned as the ETag.
func (h *MembershipHandler) Roster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.svc.GetClassRoster(r.Context(), r.PathValue("classId"))
	if err != nil {
		writeServiceError(w, r, err, "get roster")
		return
	}
	w.Header().Set("ETag", quoteETag(roster.Version))
	WriteData(w, http.StatusOK, roster, nil)
}

// Candidates handles GET /v1/classes/{classId}/candidates
func (h *MembershipHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	students, err := h.svc.ListCandidates(r.Context(), r.PathValue("classId"))
	if err != nil {
		writeServiceError(w, r, err, "list candidates")
		return
	}
	WriteCollection(w, http.StatusOK, students, len(students), nil)
}

// CheckConflicts handles POST /v1/classes/{classId}/conflicts
func (h *MembershipHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req model.CheckConflictsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.svc.CheckConflicts(r.Context(), r.PathValue("classId"), req.StudentIDs)
	if err != nil {
		writeServiceError(w, r, err, "check conflicts")
		return
	}
	WriteData(w, http.StatusOK, resp, nil)
}

// Update handles PUT /v1/classes/{classId}/students
// An If-Match header is accepted in place of expected_version.
func (h *MembershipHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateMembershipRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	if ifMatch := unquoteETag(r.Header.Get("If-Match")); ifMatch != "" {
		if req.ExpectedVersion != "" && req.ExpectedVersion != ifMatch {
			WriteError(w, model.NewBadRequestError("If-Match and expected_version disagree"))
			return
		}
		req.ExpectedVersion = ifMatch
	}
	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	resp, err := h.svc.UpdateMembership(r.Context(), r.PathValue("classId"), req)
	if err != nil {
		writeServiceError(w, r, err, "update membership")
		return
	}
	w.Header().Set("ETag", quoteETag(resp.Roster.Version))
	WriteData(w, http.StatusOK, resp, nil)
}

// Sync handles POST /v1/roster/sync
func (h *MembershipHandler) Sync(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Sync(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "sync roster")
		return
	}
	WriteData(w, http.StatusOK, resp, nil)
}

func quoteETag(version string) string {
	return `"` + version + `"`
}

func unquoteETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}
