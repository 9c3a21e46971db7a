// Package realtime pushes state-change notifications to the rendering
// layer over WebSocket. The annotation cores publish into the hub instead
// of relying on implicit reactivity; UI clients subscribe to a channel and
// re-render from the snapshots they receive.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains channel -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling: local broadcast + publish to Redis.
type Hub struct {
	// channel -> map[clientID]*Client
	channels map[string]map[string]*Client
	subs     map[string]func() // cancel Redis subscription per channel
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    Publisher
	redisSub Subscriber
}

// Publisher is the interface for publishing to Redis (for cross-instance broadcast).
type Publisher interface {
	PublishChannelEvent(channel, event string, payload []byte) error
}

// Subscriber subscribes to channels and invokes handler for incoming events.
type Subscriber interface {
	SubscribeChannel(channel string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil in a
// single-instance deployment.
func NewHub(logger *zap.Logger, redisPub Publisher, redisSub Subscriber) *Hub {
	return &Hub{
		channels: make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a channel. Starts the Redis subscription for
// the channel when the first client joins.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.channels[c.Channel] == nil {
		h.channels[c.Channel] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeChannel(c.Channel, func(event string, payload []byte) {
				h.Broadcast(c.Channel, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.Channel] = cancel
			}
		}
	}
	h.channels[c.Channel][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined", zap.String("client_id", c.ID), zap.String("channel", c.Channel))
}

// Unregister removes a client from a channel. Cancels the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.channels[c.Channel]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.channels, c.Channel)
			if cancel, ok := h.subs[c.Channel]; ok {
				cancel()
				delete(h.subs, c.Channel)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left", zap.String("client_id", c.ID), zap.String("channel", c.Channel))
}

// Broadcast sends a message to all clients on a channel (local only).
func (h *Hub) Broadcast(channel, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.channels[channel]
	h.mu.RUnlock()

	if clients == nil {
		return
	}
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// BroadcastAndPublish sends to local clients and publishes to Redis for
// other instances.
func (h *Hub) BroadcastAndPublish(channel, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.Broadcast(channel, event, json.RawMessage(data))
	if h.redis != nil {
		_ = h.redis.PublishChannelEvent(channel, event, data)
	}
}

// ClientCount returns the number of connected clients on a channel.
func (h *Hub) ClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
