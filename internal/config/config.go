// Package config loads the chat node configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/A-Crow-Pixel/IK-SS25-G4/pkg/config"
)

// Config holds every recognised option for a chat node.
type Config struct {
	// ServerID is this node's identity in the federation. Required.
	ServerID string

	// UDPPort is the local discovery port.
	UDPPort int
	// TCPPort carries both client and peer sessions.
	TCPPort int
	// PeerPorts is the UDP port set probed during discovery bootstrap.
	PeerPorts []int
	// BroadcastAddr is the address discovery broadcasts go to.
	BroadcastAddr string

	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration

	// DialBackoffMin/Max bound the randomized wait between peer dial attempts.
	DialBackoffMin time.Duration
	DialBackoffMax time.Duration

	// ConnectTimeout bounds the CONNECT_SERVER handshake on outbound dials.
	ConnectTimeout time.Duration

	// MaxPayloadBytes caps a single frame payload. Oversized senders are
	// hung up with PAYLOAD_LIMIT_EXCEEDED.
	MaxPayloadBytes int

	// AckTTL is how long an unanswered message forward stays in the pending
	// table before it is swept and failed back to the sender.
	AckTTL time.Duration

	// HTTPPort serves /health, /metrics and the event feed.
	HTTPPort string

	// Translation backend settings, see pkg/translate.
	TranslateProvider string
	TranslateURL      string
	TranslateAPIKey   string

	// KafkaBrokers enables the event sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads the environment. SERVER_ID must be set; everything else has
// defaults matching a single-host demo mesh.
func Load() (Config, error) {
	serverID := pkgconfig.GetEnv("SERVER_ID", "")
	if serverID == "" {
		return Config{}, fmt.Errorf("SERVER_ID is required")
	}

	cfg := Config{
		ServerID:          serverID,
		UDPPort:           pkgconfig.GetEnvInt("UDP_PORT", 9999),
		TCPPort:           pkgconfig.GetEnvInt("TCP_PORT", 65432),
		PeerPorts:         pkgconfig.GetEnvInts("PEER_PORTS", []int{65432, 65433, 65434, 65435, 9999}),
		BroadcastAddr:     pkgconfig.GetEnv("BROADCAST_ADDR", "255.255.255.255"),
		HeartbeatInterval: pkgconfig.GetEnvDuration("HEARTBEAT_INTERVAL", 10*time.Second),
		HeartbeatTimeout:  pkgconfig.GetEnvDuration("HEARTBEAT_TIMEOUT", 30*time.Second),
		DialBackoffMin:    pkgconfig.GetEnvDuration("DIAL_BACKOFF_MIN", 500*time.Millisecond),
		DialBackoffMax:    pkgconfig.GetEnvDuration("DIAL_BACKOFF_MAX", 2*time.Second),
		ConnectTimeout:    pkgconfig.GetEnvDuration("CONNECT_TIMEOUT", 10*time.Second),
		MaxPayloadBytes:   pkgconfig.GetEnvInt("MAX_PAYLOAD_BYTES", 4<<20),
		AckTTL:            pkgconfig.GetEnvDuration("ACK_TTL", 5*time.Minute),
		HTTPPort:          pkgconfig.GetEnv("HTTP_PORT", "18080"),
		TranslateProvider: pkgconfig.GetEnv("TRANSLATE_PROVIDER", ""),
		TranslateURL:      pkgconfig.GetEnv("TRANSLATE_URL", ""),
		TranslateAPIKey:   pkgconfig.GetEnv("TRANSLATE_API_KEY", ""),
		KafkaTopic:        pkgconfig.GetEnv("KAFKA_TOPIC", "chat.events"),
	}

	if brokers := pkgconfig.GetEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}

	if cfg.DialBackoffMax < cfg.DialBackoffMin {
		cfg.DialBackoffMax = cfg.DialBackoffMin
	}
	if cfg.HeartbeatTimeout <= cfg.HeartbeatInterval {
		return Config{}, fmt.Errorf("HEARTBEAT_TIMEOUT %v must exceed HEARTBEAT_INTERVAL %v", cfg.HeartbeatTimeout, cfg.HeartbeatInterval)
	}
	if cfg.MaxPayloadBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_PAYLOAD_BYTES must be positive, got %d", cfg.MaxPayloadBytes)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
