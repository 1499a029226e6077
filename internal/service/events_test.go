package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/crcportal/api/internal/membership"
)

func receive(t *testing.T, sub *Subscriber) *Event {
	t.Helper()
	select {
	case ev := <-sub.Events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventHub_PublishRoutesByClass(t *testing.T) {
	t.Parallel()

	hub := NewEventHub(time.Hour)
	defer hub.Close()

	subA := hub.Subscribe("crc_class:a", "sub-1")
	subB := hub.Subscribe("crc_class:b", "sub-2")

	hub.Publish(&Event{Type: EventStudentsAssigned, ClassID: "crc_class:a", Data: "x"})

	if ev := receive(t, subA); ev.Type != EventStudentsAssigned {
		t.Errorf("unexpected event type %s", ev.Type)
	}
	select {
	case ev := <-subB.Events:
		t.Errorf("class b should not receive class a events, got %v", ev)
	default:
	}

	if hub.SubscriberCount("crc_class:a") != 1 {
		t.Errorf("expected 1 subscriber, got %d", hub.SubscriberCount("crc_class:a"))
	}
	hub.Unsubscribe("crc_class:a", "sub-1")
	if hub.SubscriberCount("crc_class:a") != 0 {
		t.Error("expected subscriber removed")
	}
}

func TestEventHub_OnTransition(t *testing.T) {
	t.Parallel()

	hub := NewEventHub(time.Hour)
	defer hub.Close()
	sub := hub.Subscribe("crc_class:a", "sub-1")

	change := membership.Change{
		ClassID: "crc_class:a",
		Add:     []string{"student:s1"},
		Remove:  []string{"student:s3"},
	}

	// Intermediate states publish nothing.
	hub.OnTransition(membership.Transition{MutationID: "m1", To: membership.StateApplying, Change: change})
	hub.OnTransition(membership.Transition{MutationID: "m1", To: membership.StateCommitted, Change: change})

	assigned := receive(t, sub)
	removed := receive(t, sub)
	if assigned.Type != EventStudentsAssigned || removed.Type != EventStudentsRemoved {
		t.Fatalf("unexpected events %s, %s", assigned.Type, removed.Type)
	}
	data := assigned.Data.(*RosterEventData)
	if data.MutationID != "m1" || len(data.StudentIDs) != 1 || data.StudentIDs[0] != "student:s1" {
		t.Errorf("unexpected payload %+v", data)
	}

	hub.OnTransition(membership.Transition{
		MutationID: "m2",
		To:         membership.StateRollingBack,
		Change:     change,
		Err:        errors.New("write timeout"),
	})
	rolled := receive(t, sub)
	if rolled.Type != EventChangeRolledBack {
		t.Fatalf("expected rolled back event, got %s", rolled.Type)
	}
	if !strings.Contains(rolled.Format(), `"error":"write timeout"`) {
		t.Errorf("unexpected SSE frame %q", rolled.Format())
	}
}

func TestEventHub_Heartbeat(t *testing.T) {
	t.Parallel()

	hub := NewEventHub(10 * time.Millisecond)
	defer hub.Close()
	sub := hub.Subscribe("crc_class:a", "sub-1")

	if ev := receive(t, sub); ev.Type != EventHeartbeat {
		t.Errorf("expected heartbeat, got %s", ev.Type)
	}
}

func TestEventHub_CloseClosesSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewEventHub(time.Hour)
	sub := hub.Subscribe("crc_class:a", "sub-1")

	hub.Close()
	hub.Close()

	if _, ok := <-sub.Events; ok {
		t.Error("expected events channel closed")
	}
	hub.Unsubscribe("crc_class:a", "sub-1")
}
