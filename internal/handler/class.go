package handler

import (
	"context"
	"net/http"

	"github.com/crcportal/api/internal/model"
)

// ClassService is what the class handler needs from the service layer.
type ClassService interface {
	CreateClass(ctx context.Context, req model.CreateClassRequest) (*model.Class, error)
	GetClass(ctx context.Context, id string) (*model.Class, error)
	ListClasses(ctx context.Context) ([]model.Class, error)
	UpdateClass(ctx context.Context, id string, req model.UpdateClassRequest) (*model.Class, error)
	DeleteClass(ctx context.Context, id string) error
}

// ClassHandler handles CRC class endpoints
type ClassHandler struct {
	svc ClassService
}

// NewClassHandler creates a new class handler
func NewClassHandler(svc ClassService) *ClassHandler {
	return &ClassHandler{svc: svc}
}

// RegisterRoutes registers class routes
func (h *ClassHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/classes", h.List)
	mux.HandleFunc("POST /v1/classes", h.Create)
	mux.HandleFunc("GET /v1/classes/{classId}", h.Get)
	mux.HandleFunc("PATCH /v1/classes/{classId}", h.Update)
	mux.HandleFunc("DELETE /v1/classes/{classId}", h.Delete)
}

func classLinks(id string) map[string]string {
	return map[string]string{
		"self":       "/v1/classes/" + id,
		"students":   "/v1/classes/" + id + "/students",
		"candidates": "/v1/classes/" + id + "/candidates",
		"events":     "/v1/classes/" + id + "/events",
	}
}

// List handles GET /v1/classes
func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	classes, err := h.svc.ListClasses(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list classes")
		return
	}
	WriteCollection(w, http.StatusOK, classes, len(classes), nil)
}

// Create handles POST /v1/classes
func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateClassRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	class, err := h.svc.CreateClass(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "create class")
		return
	}
	WriteData(w, http.StatusCreated, class, classLinks(class.ID))
}

// Get handles GET /v1/classes/{classId}
func (h *ClassHandler) Get(w http.ResponseWriter, r *http.Request) {
	classID := r.PathValue("classId")

	class, err := h.svc.GetClass(r.Context(), classID)
	if err != nil {
		writeServiceError(w, r, err, "get class")
		return
	}
	WriteData(w, http.StatusOK, class, classLinks(class.ID))
}

// Update handles PATCH /v1/classes/{classId}
func (h *ClassHandler) Update(w http.ResponseWriter, r *http.Request) {
	classID := r.PathValue("classId")

	var req model.UpdateClassRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	class, err := h.svc.UpdateClass(r.Context(), classID, req)
	if err != nil {
		writeServiceError(w, r, err, "update class")
		return
	}
	WriteData(w, http.StatusOK, class, classLinks(class.ID))
}

// Delete handles DELETE /v1/classes/{classId}
func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	classID := r.PathValue("classId")

	if err := h.svc.DeleteClass(r.Context(), classID); err != nil {
		writeServiceError(w, r, err, "delete class")
		return
	}
	WriteNoContent(w)
}
