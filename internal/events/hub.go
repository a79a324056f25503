package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
)

// Hub maintains the set of feed observers and broadcasts events to them.
type Hub struct {
	serverID   string
	observers  map[*Observer]bool
	broadcast  chan []byte
	register   chan *Observer
	unregister chan *Observer
	logger     logging.Logger
	published  *prometheus.CounterVec
	mutex      sync.RWMutex
}

// Observer is one WebSocket feed connection.
type Observer struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	channels []string
	logger   logging.Logger
}

// subscription is an observer's subscribe/unsubscribe request.
type subscription struct {
	Action   string   `json:"action"`
	Channels []string `json:"channels"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHub creates a feed hub. The counter tracks published events by type and
// may be nil.
func NewHub(serverID string, logger logging.Logger, published *prometheus.CounterVec) *Hub {
	return &Hub{
		serverID:   serverID,
		observers:  make(map[*Observer]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Observer),
		unregister: make(chan *Observer),
		logger:     logger,
		published:  published,
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for obs := range h.observers {
				close(obs.send)
				delete(h.observers, obs)
			}
			h.mutex.Unlock()
			return

		case obs := <-h.register:
			h.mutex.Lock()
			h.observers[obs] = true
			count := len(h.observers)
			h.mutex.Unlock()
			h.logger.WithField("observer_count", count).Info("Feed observer connected")

		case obs := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.observers[obs]; ok {
				delete(h.observers, obs)
				close(obs.send)
			}
			count := len(h.observers)
			h.mutex.Unlock()
			h.logger.WithField("observer_count", count).Info("Feed observer disconnected")

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) broadcastMessage(message []byte) {
	var ev Event
	if err := json.Unmarshal(message, &ev); err != nil {
		h.logger.WithError(err).Error("Failed to unmarshal broadcast event")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for obs := range h.observers {
		if !obs.subscribed(ev.Channel) {
			continue
		}
		select {
		case obs.send <- message:
		default:
			close(obs.send)
			delete(h.observers, obs)
		}
	}
}

func (o *Observer) subscribed(channel string) bool {
	for _, c := range o.channels {
		if c == channel || c == "all" {
			return true
		}
	}
	return false
}

// Publish queues an event for broadcast. Full feed buffers drop the event
// rather than stall the caller.
func (h *Hub) Publish(eventType, channel string, data map[string]interface{}) {
	ev := Event{
		Type:      eventType,
		Channel:   channel,
		ServerID:  h.serverID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	message, err := json.Marshal(ev)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal event")
		return
	}

	if h.published != nil {
		h.published.WithLabelValues(eventType).Inc()
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Feed buffer full, dropping event")
	}
}

// Stats returns observer counts per channel for the ops endpoint.
func (h *Hub) Stats() map[string]interface{} {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	channelStats := make(map[string]int)
	for obs := range h.observers {
		for _, channel := range obs.channels {
			channelStats[channel]++
		}
	}

	return map[string]interface{}{
		"total_observers":       len(h.observers),
		"channel_subscriptions": channelStats,
	}
}

// ServeWS upgrades an HTTP request into a feed observer connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	obs := &Observer{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		channels: []string{},
		logger:   h.logger,
	}

	obs.hub.register <- obs

	go obs.writePump()
	go obs.readPump()
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// readPump consumes subscription requests from the observer.
func (o *Observer) readPump() {
	defer func() {
		o.hub.unregister <- o
		o.conn.Close()
	}()

	o.conn.SetReadLimit(maxMessageSize)
	o.conn.SetReadDeadline(time.Now().Add(pongWait))
	o.conn.SetPongHandler(func(string) error {
		o.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := o.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				o.logger.WithError(err).Error("WebSocket connection error")
			}
			break
		}

		var sub subscription
		if err := json.Unmarshal(message, &sub); err != nil {
			o.logger.WithError(err).Warn("Invalid subscription message")
			continue
		}

		o.handleSubscription(&sub)
	}
}

// writePump pushes events to the observer and keeps the connection alive.
func (o *Observer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		o.conn.Close()
	}()

	for {
		select {
		case message, ok := <-o.send:
			o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				o.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := o.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush queued events into the same WebSocket message.
			n := len(o.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-o.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleSubscription mutates o.channels under the hub mutex; the broadcast
// path reads it under the same mutex.
func (o *Observer) handleSubscription(sub *subscription) {
	switch sub.Action {
	case "subscribe":
		o.hub.mutex.Lock()
		o.channels = append(o.channels, sub.Channels...)
		current := append([]string(nil), o.channels...)
		o.hub.mutex.Unlock()
		o.logger.WithField("channels", sub.Channels).Info("Observer subscribed")
		o.confirm("subscription_confirmed", current)

	case "unsubscribe":
		o.hub.mutex.Lock()
		for _, channel := range sub.Channels {
			for i, existing := range o.channels {
				if existing == channel {
					o.channels = append(o.channels[:i], o.channels[i+1:]...)
					break
				}
			}
		}
		current := append([]string(nil), o.channels...)
		o.hub.mutex.Unlock()
		o.logger.WithFields(logging.Fields{
			"unsubscribed": sub.Channels,
			"remaining":    current,
		}).Info("Observer unsubscribed")
		o.confirm("unsubscription_confirmed", current)
	}
}

func (o *Observer) confirm(confirmType string, channels []string) {
	message, err := json.Marshal(map[string]interface{}{
		"type":     confirmType,
		"channels": channels,
	})
	if err != nil {
		o.logger.WithError(err).Error("Failed to marshal confirmation")
		return
	}

	select {
	case o.send <- message:
	default:
		// Stalled observer; the ping cycle will reap the connection.
	}
}
