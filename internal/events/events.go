// Package events fans node activity out to observers: a WebSocket feed on
// the ops surface and, when brokers are configured, a Kafka topic. Events
// are best-effort; chat delivery never blocks on an observer.
package events

import (
	"time"
)

// Event is one observer-visible occurrence on the node.
type Event struct {
	Type      string                 `json:"type"`
	Channel   string                 `json:"channel"`
	ServerID  string                 `json:"server_id"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// Feed channels.
const (
	ChannelSessions  = "sessions"
	ChannelMesh      = "mesh"
	ChannelRouting   = "routing"
	ChannelGroups    = "groups"
	ChannelReminders = "reminders"
	ChannelSystem    = "system"
)

// Publisher receives node events.
type Publisher interface {
	Publish(eventType, channel string, data map[string]interface{})
}

// Fanout publishes to every member.
type Fanout []Publisher

func (f Fanout) Publish(eventType, channel string, data map[string]interface{}) {
	for _, p := range f {
		p.Publish(eventType, channel, data)
	}
}

// Nop discards events, for tests.
type Nop struct{}

func (Nop) Publish(string, string, map[string]interface{}) {}
