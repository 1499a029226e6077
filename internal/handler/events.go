package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/crcportal/api/internal/model"
	"github.com/crcportal/api/internal/service"
)

// EventsHandler handles SSE event streaming
type EventsHandler struct {
	eventHub *service.EventHub
	classes  ClassService
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(eventHub *service.EventHub, classes ClassService) *EventsHandler {
	return &EventsHandler{
		eventHub: eventHub,
		classes:  classes,
	}
}

// RegisterRoutes registers the event stream route
func (h *EventsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/classes/{classId}/events", h.Stream)
}

// Stream handles GET /v1/classes/{classId}/events
// This endpoint streams roster events for the class
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	classID := r.PathValue("classId")
	if _, err := h.classes.GetClass(r.Context(), classID); err != nil {
		writeServiceError(w, r, err, "stream events")
		return
	}

	// Check if the client supports SSE
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, model.NewInternalError("streaming not supported"))
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Streams outlive the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	subscriberID := uuid.New().String()
	sub := h.eventHub.Subscribe(classID, subscriberID)
	defer h.eventHub.Unsubscribe(classID, subscriberID)

	fmt.Fprintf(w, "event: connected\ndata: {\"subscriber_id\":\"%s\"}\n\n", subscriberID)
	flusher.Flush()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			fmt.Fprint(w, event.Format())
			flusher.Flush()

		case <-sub.Done:
			return

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}
