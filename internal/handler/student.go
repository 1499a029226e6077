package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/crcportal/api/internal/model"
)

// StudentService is what the student handler needs from the service layer.
type StudentService interface {
	ListStudents(ctx context.Context, filter model.StudentFilter) ([]model.Student, error)
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	CreateStudent(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error)
	UpdateStudent(ctx context.Context, id string, req model.UpdateStudentRequest) (*model.Student, error)
	DeleteStudent(ctx context.Context, id string) error
}

// StudentHandler handles student record endpoints
type StudentHandler struct {
	svc StudentService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(svc StudentService) *StudentHandler {
	return &StudentHandler{svc: svc}
}

// RegisterRoutes registers student routes
func (h *StudentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/students", h.List)
	mux.HandleFunc("POST /v1/students", h.Create)
	mux.HandleFunc("GET /v1/students/{studentId}", h.Get)
	mux.HandleFunc("PATCH /v1/students/{studentId}", h.Update)
	mux.HandleFunc("DELETE /v1/students/{studentId}", h.Delete)
}

// List handles GET /v1/students
// Query: class_id, unassigned=true, exclude_class
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.StudentFilter{
		ClassID:      q.Get("class_id"),
		ExcludeClass: q.Get("exclude_class"),
	}
	if v := q.Get("unassigned"); v != "" {
		unassigned, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, model.NewBadRequestError("unassigned must be true or false"))
			return
		}
		filter.Unassigned = unassigned
	}
	if filter.ClassID != "" && filter.Unassigned {
		WriteError(w, model.NewBadRequestError("class_id and unassigned cannot be combined"))
		return
	}

	students, err := h.svc.ListStudents(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "list students")
		return
	}
	WriteCollection(w, http.StatusOK, students, len(students), nil)
}

// Create handles POST /v1/students
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateStudentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	st, err := h.svc.CreateStudent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "create student")
		return
	}
	WriteData(w, http.StatusCreated, st, map[string]string{"self": "/v1/students/" + st.ID})
}

// Get handles GET /v1/students/{studentId}
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetStudent(r.Context(), r.PathValue("studentId"))
	if err != nil {
		writeServiceError(w, r, err, "get student")
		return
	}
	WriteData(w, http.StatusOK, st, nil)
}

// Update handles PATCH /v1/students/{studentId}
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStudentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	st, err := h.svc.UpdateStudent(r.Context(), r.PathValue("studentId"), req)
	if err != nil {
		writeServiceError(w, r, err, "update student")
		return
	}
	WriteData(w, http.StatusOK, st, nil)
}

// Delete handles DELETE /v1/students/{studentId}
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteStudent(r.Context(), r.PathValue("studentId")); err != nil {
		writeServiceError(w, r, err, "delete student")
		return
	}
	WriteNoContent(w)
}
