package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestHub() *Hub {
	return NewHub(zerolog.Nop(), nil)
}

func TestValidRoom(t *testing.T) {
	valid := []string{"doctor_1", "user_42", "doctor_7f1c0c2e-4d8a-4a7b-9f0e-2d1c3b4a5e6f"}
	for _, r := range valid {
		if !ValidRoom(r) {
			t.Errorf("expected %q to be valid", r)
		}
	}
	invalid := []string{"", "doctor_", "nurse_1", "doctor-1", "doctor_1 ", "user_a/b", "Doctor_1"}
	for _, r := range invalid {
		if ValidRoom(r) {
			t.Errorf("expected %q to be invalid", r)
		}
	}
	if DoctorTopic("9") != "doctor_9" || UserTopic("3") != "user_3" {
		t.Error("unexpected topic names")
	}
}

func TestHub_RegisterClient(t *testing.T) {
	hub := newTestHub()
	client := NewClient("client-1", 8)
	client.Topics = []string{"doctor_123"}

	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.TopicCount("doctor_123") != 1 {
		t.Fatalf("expected 1 client on doctor_123, got %d", hub.TopicCount("doctor_123"))
	}
}

func TestHub_RegisterDropsInvalidRooms(t *testing.T) {
	hub := newTestHub()
	client := NewClient("client-1", 8)
	client.Topics = []string{"doctor_1", "admin", "doctor_1"}

	hub.Register(client)

	if len(client.Topics) != 1 || client.Topics[0] != "doctor_1" {
		t.Fatalf("expected only doctor_1, got %v", client.Topics)
	}
	if hub.TopicCount("admin") != 0 {
		t.Fatal("invalid room should not be joined")
	}
}

func TestHub_UnregisterClient(t *testing.T) {
	hub := newTestHub()
	client := NewClient("client-2", 8)
	client.Topics = []string{"user_456"}

	hub.Register(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	if hub.TopicCount("user_456") != 0 {
		t.Fatalf("expected 0 clients on user_456, got %d", hub.TopicCount("user_456"))
	}
	if _, ok := <-client.Send; ok {
		t.Fatal("expected Send channel to be closed")
	}

	// Second unregister is a no-op.
	hub.Unregister(client)
}

func TestHub_BroadcastToTopic(t *testing.T) {
	hub := newTestHub()

	subscriber := NewClient("sub-1", 8)
	subscriber.Topics = []string{"doctor_1"}
	other := NewClient("sub-2", 8)
	other.Topics = []string{"doctor_2"}
	hub.Register(subscriber)
	hub.Register(other)

	payload := map[string]interface{}{"doctor_id": "1", "current_token": 4, "date": "2025-01-01"}
	if err := hub.Broadcast(context.Background(), "doctor_1", EventTokenUpdated, payload); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	select {
	case msg := <-subscriber.Send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		if received.Event != EventTokenUpdated || received.Topic != "doctor_1" {
			t.Fatalf("unexpected event %+v", received)
		}
		var data map[string]interface{}
		if err := json.Unmarshal(received.Data, &data); err != nil {
			t.Fatalf("failed to unmarshal data: %v", err)
		}
		if data["current_token"] != float64(4) {
			t.Fatalf("expected current_token 4, got %v", data["current_token"])
		}
		if received.Timestamp.IsZero() {
			t.Fatal("expected timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	select {
	case <-other.Send:
		t.Fatal("another doctor's subscriber should not receive the event")
	default:
	}
}

func TestHub_BroadcastToEmptyTopic(t *testing.T) {
	hub := newTestHub()
	if err := hub.Broadcast(context.Background(), "doctor_none", EventNewAppointment, map[string]string{}); err != nil {
		t.Fatalf("broadcast to empty topic should succeed: %v", err)
	}
}

func TestHub_BroadcastUnencodablePayload(t *testing.T) {
	hub := newTestHub()
	if err := hub.Broadcast(context.Background(), "doctor_1", EventNewAppointment, make(chan int)); err == nil {
		t.Fatal("expected encode error")
	}
}

func TestHub_SlowClientSkipped(t *testing.T) {
	hub := newTestHub()
	slow := NewClient("slow", 1)
	slow.Topics = []string{"doctor_1"}
	fast := NewClient("fast", 8)
	fast.Topics = []string{"doctor_1"}
	hub.Register(slow)
	hub.Register(fast)

	for i := 0; i < 3; i++ {
		if err := hub.Broadcast(context.Background(), "doctor_1", EventTokenUpdated, map[string]int{"current_token": i}); err != nil {
			t.Fatalf("broadcast %d: %v", i, err)
		}
	}

	if len(slow.Send) != 1 {
		t.Fatalf("expected slow client to hold 1 message, got %d", len(slow.Send))
	}
	if len(fast.Send) != 3 {
		t.Fatalf("expected fast client to hold 3 messages, got %d", len(fast.Send))
	}
}

func TestHub_MultipleTopics(t *testing.T) {
	hub := newTestHub()
	client := NewClient("multi", 8)
	client.Topics = []string{"doctor_1", "user_1"}
	hub.Register(client)

	_ = hub.Broadcast(context.Background(), "doctor_1", EventNewAppointment, map[string]string{"id": "a"})
	_ = hub.Broadcast(context.Background(), "user_1", EventAppointmentCreated, map[string]string{"id": "a"})

	if len(client.Send) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(client.Send))
	}
}

func TestHub_ProcessMessage(t *testing.T) {
	hub := newTestHub()
	client := NewClient("pm", 8)
	hub.Register(client)

	hub.ProcessMessage(client, ClientMessage{Action: "join", Rooms: []string{"doctor_5"}})
	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []string{"user_9"}})
	if hub.TopicCount("doctor_5") != 1 || hub.TopicCount("user_9") != 1 {
		t.Fatalf("expected both rooms joined, have %v", client.Topics)
	}

	hub.ProcessMessage(client, ClientMessage{Action: "leave", Rooms: []string{"doctor_5"}})
	if hub.TopicCount("doctor_5") != 0 {
		t.Fatal("expected doctor_5 to be left")
	}
	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Topics: []string{"user_9"}})
	if len(client.Topics) != 0 {
		t.Fatalf("expected no rooms, got %v", client.Topics)
	}

	hub.ProcessMessage(client, ClientMessage{Action: "shout", Rooms: []string{"doctor_5"}})
	if hub.TopicCount("doctor_5") != 0 {
		t.Fatal("unknown actions must be ignored")
	}
}

func TestHub_SubscribeUnregisteredClient(t *testing.T) {
	hub := newTestHub()
	client := NewClient("ghost", 8)
	if joined := hub.Subscribe(client, []string{"doctor_1"}); joined != nil {
		t.Fatalf("expected nothing joined, got %v", joined)
	}
	if hub.TopicCount("doctor_1") != 0 {
		t.Fatal("unregistered client must not join rooms")
	}
}

func TestHub_ConcurrentRegisterUnregister(t *testing.T) {
	hub := newTestHub()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewClient("c", 8)
			c.Topics = []string{"doctor_1"}
			hub.Register(c)
			_ = hub.Broadcast(context.Background(), "doctor_1", EventTokenUpdated, map[string]int{"current_token": 1})
			hub.Unregister(c)
		}()
	}
	wg.Wait()

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	if hub.TopicCount("doctor_1") != 0 {
		t.Fatalf("expected empty room, got %d", hub.TopicCount("doctor_1"))
	}
}

func TestHub_CloseAll(t *testing.T) {
	hub := newTestHub()
	a := NewClient("a", 1)
	a.Topics = []string{"doctor_1"}
	hub.Register(a)

	hub.CloseAll()
	if hub.ClientCount() != 0 || hub.TopicCount("doctor_1") != 0 {
		t.Fatal("expected hub to be empty")
	}
	if _, ok := <-a.Send; ok {
		t.Fatal("expected client channel closed")
	}
	hub.Unregister(a)
}

func TestNopBroadcaster(t *testing.T) {
	var b Broadcaster = NopBroadcaster{}
	if err := b.Broadcast(context.Background(), "doctor_1", EventTokenUpdated, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
