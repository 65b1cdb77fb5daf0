// Package sse fans trip events out to connected browsers. With Redis, events
// travel through a pub/sub channel so every API instance sees them.
package sse

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	channelPrefix  = "planit:trip:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix

	clientBuffer = 64
)

type Event struct {
	Type   string    `json:"type"`
	TripID uuid.UUID `json:"trip_id"`
	Data   any       `json:"data,omitempty"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	TripID uuid.UUID
	Send   chan []byte
}

func NewClient(userID, tripID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		TripID: tripID,
		Send:   make(chan []byte, clientBuffer),
	}
}

type tripMessage struct {
	tripID  uuid.UUID
	payload []byte
}

// Hub owns the set of connected clients. Register, Unregister and local
// delivery are serialised through Run.
type Hub struct {
	clients    map[uuid.UUID]map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *tripMessage
	mu         sync.RWMutex

	redis      *redis.Client
	subscribed chan struct{}
	log        zerolog.Logger
}

// NewHub returns a hub. redisClient may be nil for a single instance.
func NewHub(redisClient *redis.Client, log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *tripMessage, 256),
		redis:      redisClient,
		subscribed: make(chan struct{}),
		log:        log,
	}
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	if h.redis != nil {
		go h.subscribeRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for tripID, clients := range h.clients {
				for _, client := range clients {
					close(client.Send)
				}
				delete(h.clients, tripID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.TripID] == nil {
				h.clients[client.TripID] = make(map[string]*Client)
			}
			h.clients[client.TripID][client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.TripID]; ok {
				if _, ok := clients[client.ID]; ok {
					delete(clients, client.ID)
					close(client.Send)
				}
				if len(clients) == 0 {
					delete(h.clients, client.TripID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients[msg.tripID] {
				select {
				case client.Send <- msg.payload:
				default:
					// slow client, drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ClientCount reports how many clients watch the trip on this instance.
func (h *Hub) ClientCount(tripID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[tripID])
}

// PublishTripEvent broadcasts an event to everyone watching the trip. It never
// blocks; events that cannot be queued are dropped.
func (h *Hub) PublishTripEvent(tripID uuid.UUID, eventType string, data any) {
	payload, err := json.Marshal(Event{Type: eventType, TripID: tripID, Data: data})
	if err != nil {
		h.log.Error().Err(err).Str("type", eventType).Msg("failed to encode event")
		return
	}

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), tripChannel(tripID), payload).Err()
		if err == nil {
			return
		}
		h.log.Warn().Err(err).Msg("redis publish failed, delivering locally")
	}
	h.deliver(tripID, payload)
}

func (h *Hub) deliver(tripID uuid.UUID, payload []byte) {
	select {
	case h.broadcast <- &tripMessage{tripID: tripID, payload: payload}:
	default:
		h.log.Warn().Stringer("trip_id", tripID).Msg("event queue full, dropping event")
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.redis.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.Error().Err(err).Msg("redis subscribe failed")
		return
	}
	close(h.subscribed)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			tripID, ok := tripIDFromChannel(msg.Channel)
			if !ok {
				continue
			}
			h.deliver(tripID, []byte(msg.Payload))
		}
	}
}

func tripChannel(tripID uuid.UUID) string {
	return channelPrefix + tripID.String() + channelSuffix
}

func tripIDFromChannel(channel string) (uuid.UUID, bool) {
	raw, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok {
		return uuid.Nil, false
	}
	raw, ok = strings.CutSuffix(raw, channelSuffix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
