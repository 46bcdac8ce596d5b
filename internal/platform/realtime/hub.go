// Package realtime delivers appointment and queue events to websocket
// clients. Clients join rooms named doctor_<id> or user_<id>; the Hub keeps
// the room membership and fans events out to every member.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hospease/hospease/internal/platform/metrics"
)

// Event names.
const (
	EventNewAppointment     = "new_appointment"
	EventAppointmentCreated = "appointment_created"
	EventTokenUpdated       = "token_updated"
)

var roomPattern = regexp.MustCompile(`^(doctor|user)_[A-Za-z0-9-]+$`)

// DoctorTopic is the room of a doctor's dashboard.
func DoctorTopic(doctorID string) string { return "doctor_" + doctorID }

// UserTopic is the room of a patient.
func UserTopic(userID string) string { return "user_" + userID }

// ValidRoom reports whether name is a joinable room.
func ValidRoom(name string) bool { return roomPattern.MatchString(name) }

// Broadcaster publishes an event to every current subscriber of topic.
// Delivery is at most once; subscribers that join later miss it.
type Broadcaster interface {
	Broadcast(ctx context.Context, topic, event string, payload any) error
}

// Event is the message written to clients.
type Event struct {
	Event     string          `json:"event"`
	Topic     string          `json:"topic"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent encodes payload into an Event stamped with the current time.
func NewEvent(topic, event string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Event{
		Event:     event,
		Topic:     topic,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// ClientMessage is an inbound room membership request. "join"/"leave" use
// Rooms; the "subscribe"/"unsubscribe" aliases may use Topics.
type ClientMessage struct {
	Action string   `json:"action"`
	Rooms  []string `json:"rooms,omitempty"`
	Topics []string `json:"topics,omitempty"`
}

func (m ClientMessage) names() []string {
	out := make([]string, 0, len(m.Rooms)+len(m.Topics))
	out = append(out, m.Rooms...)
	return append(out, m.Topics...)
}

// Client represents a single websocket connection.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
}

// NewClient creates a client with a buffered outbound queue.
func NewClient(id string, buffer int) *Client {
	return &Client{ID: id, Send: make(chan []byte, buffer)}
}

// Hub tracks connected clients and their rooms. All operations are safe for
// concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> members
	all     map[*Client]struct{}

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewHub(logger zerolog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		logger:  logger.With().Str("component", "realtime").Logger(),
		metrics: m,
	}
}

// Register adds a client and joins it to its initial valid topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	initial := client.Topics
	client.Topics = nil
	h.all[client] = struct{}{}
	h.subscribeLocked(client, initial)
	h.metrics.ClientConnected()
}

// Unregister removes a client from every room and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	h.unsubscribeLocked(client, client.Topics)
	delete(h.all, client)
	close(client.Send)
	h.metrics.ClientDisconnected()
}

// Subscribe joins a registered client to topics and returns the ones
// accepted. Invalid room names are ignored.
func (h *Hub) Subscribe(client *Client, topics []string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.all[client]; !ok {
		return nil
	}
	return h.subscribeLocked(client, topics)
}

func (h *Hub) subscribeLocked(client *Client, topics []string) []string {
	var joined []string
	for _, topic := range topics {
		if !ValidRoom(topic) {
			continue
		}
		members := h.clients[topic]
		if members == nil {
			members = make(map[*Client]struct{})
			h.clients[topic] = members
		}
		if _, already := members[client]; already {
			continue
		}
		members[client] = struct{}{}
		client.Topics = append(client.Topics, topic)
		joined = append(joined, topic)
	}
	return joined
}

// Unsubscribe removes topics from a registered client.
func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.all[client]; !ok {
		return
	}
	h.unsubscribeLocked(client, topics)
}

func (h *Hub) unsubscribeLocked(client *Client, topics []string) {
	removeSet := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		removeSet[topic] = struct{}{}
		if members, ok := h.clients[topic]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.clients, topic)
			}
		}
	}

	remaining := make([]string, 0, len(client.Topics))
	for _, t := range client.Topics {
		if _, rm := removeSet[t]; !rm {
			remaining = append(remaining, t)
		}
	}
	client.Topics = remaining
}

// ProcessMessage applies an inbound ClientMessage.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "join", "subscribe":
		h.Subscribe(client, msg.names())
	case "leave", "unsubscribe":
		h.Unsubscribe(client, msg.names())
	}
}

// Broadcast implements Broadcaster for a single process.
func (h *Hub) Broadcast(_ context.Context, topic, event string, payload any) error {
	evt, err := NewEvent(topic, event, payload)
	if err == nil {
		h.Publish(evt)
	}
	h.metrics.Broadcast(event, err)
	return err
}

// Publish delivers an already-built event to the members of its topic.
// Members whose send buffer is full are skipped.
func (h *Hub) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event.Event).Msg("marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[event.Topic] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn().Str("client_id", client.ID).Str("topic", event.Topic).Msg("client buffer full, event dropped")
		}
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients in a room.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// CloseAll disconnects every client. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.all {
		close(client.Send)
		h.metrics.ClientDisconnected()
	}
	h.all = make(map[*Client]struct{})
	h.clients = make(map[string]map[*Client]struct{})
}

// NopBroadcaster drops every event.
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(context.Context, string, string, any) error { return nil }
