package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/crcportal/api/internal/membership"
)

// EventType represents the type of event
type EventType string

const (
	// Roster events
	EventStudentsAssigned EventType = "roster.assigned"
	EventStudentsRemoved  EventType = "roster.removed"
	EventChangeRolledBack EventType = "roster.rolled_back"

	// System events
	EventHeartbeat EventType = "heartbeat"
)

// DefaultHeartbeatInterval is how often idle streams receive a heartbeat.
const DefaultHeartbeatInterval = 30 * time.Second

// Event represents a server-sent event
type Event struct {
	Type    EventType   `json:"type"`
	Data    interface{} `json:"data"`
	ClassID string      `json:"-"` // Used for routing, not sent to client
}

// Format returns the SSE formatted string
func (e *Event) Format() string {
	data, _ := json.Marshal(e.Data)
	return "event: " + string(e.Type) + "\ndata: " + string(data) + "\n\n"
}

// RosterEventData is the payload of roster events.
type RosterEventData struct {
	MutationID string   `json:"mutation_id"`
	ClassID    string   `json:"class_id"`
	StudentIDs []string `json:"student_ids"`
	Error      string   `json:"error,omitempty"`
}

// Subscriber represents a connected SSE client
type Subscriber struct {
	ID      string
	ClassID string
	Events  chan *Event
	Done    chan struct{}
}

// EventHub manages SSE subscriptions and event broadcasting
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*Subscriber // classID -> subscriberID -> subscriber
	heartbeat   *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

// NewEventHub creates a new event hub. A non-positive interval uses
// DefaultHeartbeatInterval.
func NewEventHub(heartbeat time.Duration) *EventHub {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	hub := &EventHub{
		subscribers: make(map[string]map[string]*Subscriber),
		done:        make(chan struct{}),
	}
	hub.heartbeat = time.NewTicker(heartbeat)
	go hub.sendHeartbeats()
	return hub
}

// Subscribe adds a new subscriber for a class
func (h *EventHub) Subscribe(classID, subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{
		ID:      subscriberID,
		ClassID: classID,
		Events:  make(chan *Event, 100), // Buffer to prevent blocking
		Done:    make(chan struct{}),
	}

	if h.subscribers[classID] == nil {
		h.subscribers[classID] = make(map[string]*Subscriber)
	}
	h.subscribers[classID][subscriberID] = sub

	return sub
}

// Unsubscribe removes a subscriber
func (h *EventHub) Unsubscribe(classID, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if classSubs, ok := h.subscribers[classID]; ok {
		if sub, ok := classSubs[subscriberID]; ok {
			close(sub.Done)
			close(sub.Events)
			delete(classSubs, subscriberID)
		}
		if len(classSubs) == 0 {
			delete(h.subscribers, classID)
		}
	}
}

// Publish sends an event to all subscribers of a class
func (h *EventHub) Publish(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	classSubs, ok := h.subscribers[event.ClassID]
	if !ok {
		return
	}

	for _, sub := range classSubs {
		select {
		case sub.Events <- event:
		default:
			// Buffer full, skip this subscriber
		}
	}
}

// OnTransition publishes roster events for resolved membership changes.
func (h *EventHub) OnTransition(t membership.Transition) {
	switch t.To {
	case membership.StateCommitted:
		if len(t.Change.Add) > 0 {
			h.Publish(newRosterEvent(EventStudentsAssigned, t, t.Change.Add))
		}
		if len(t.Change.Remove) > 0 {
			h.Publish(newRosterEvent(EventStudentsRemoved, t, t.Change.Remove))
		}
	case membership.StateRollingBack:
		ids := append(append([]string{}, t.Change.Add...), t.Change.Remove...)
		ev := newRosterEvent(EventChangeRolledBack, t, ids)
		if t.Err != nil {
			ev.Data.(*RosterEventData).Error = t.Err.Error()
		}
		h.Publish(ev)
	}
}

func newRosterEvent(eventType EventType, t membership.Transition, ids []string) *Event {
	return &Event{
		Type:    eventType,
		ClassID: t.Change.ClassID,
		Data: &RosterEventData{
			MutationID: t.MutationID,
			ClassID:    t.Change.ClassID,
			StudentIDs: ids,
		},
	}
}

// sendHeartbeats sends periodic heartbeats to all subscribers
func (h *EventHub) sendHeartbeats() {
	for {
		select {
		case <-h.heartbeat.C:
			h.mu.RLock()
			for classID, classSubs := range h.subscribers {
				event := &Event{
					Type:    EventHeartbeat,
					ClassID: classID,
					Data: map[string]string{
						"timestamp": time.Now().UTC().Format(time.RFC3339),
					},
				}
				for _, sub := range classSubs {
					select {
					case sub.Events <- event:
					default:
					}
				}
			}
			h.mu.RUnlock()
		case <-h.done:
			return
		}
	}
}

// Close stops the event hub
func (h *EventHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.heartbeat.Stop()

		h.mu.Lock()
		defer h.mu.Unlock()

		for classID, classSubs := range h.subscribers {
			for _, sub := range classSubs {
				close(sub.Done)
				close(sub.Events)
			}
			delete(h.subscribers, classID)
		}
	})
}

// SubscriberCount returns the number of subscribers for a class
func (h *EventHub) SubscriberCount(classID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if classSubs, ok := h.subscribers[classID]; ok {
		return len(classSubs)
	}
	return 0
}
