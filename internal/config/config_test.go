package config

import (
	"testing"
	"time"
)

func TestLoadRequiresServerID(t *testing.T) {
	t.Setenv("SERVER_ID", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without SERVER_ID")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_ID", "server1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UDPPort != 9999 {
		t.Errorf("UDPPort = %d, want 9999", cfg.UDPPort)
	}
	if cfg.TCPPort != 65432 {
		t.Errorf("TCPPort = %d, want 65432", cfg.TCPPort)
	}
	if len(cfg.PeerPorts) != 5 {
		t.Errorf("PeerPorts = %v, want 5 entries", cfg.PeerPorts)
	}
	if cfg.BroadcastAddr != "255.255.255.255" {
		t.Errorf("BroadcastAddr = %q", cfg.BroadcastAddr)
	}
	if cfg.HeartbeatInterval != 10*time.Second || cfg.HeartbeatTimeout != 30*time.Second {
		t.Errorf("heartbeat defaults wrong: %v/%v", cfg.HeartbeatInterval, cfg.HeartbeatTimeout)
	}
	if cfg.MaxPayloadBytes != 4<<20 {
		t.Errorf("MaxPayloadBytes = %d", cfg.MaxPayloadBytes)
	}
	if cfg.KafkaBrokers != nil {
		t.Errorf("KafkaBrokers should default to disabled, got %v", cfg.KafkaBrokers)
	}
	if cfg.KafkaTopic != "chat.events" {
		t.Errorf("KafkaTopic = %q", cfg.KafkaTopic)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_ID", "server2")
	t.Setenv("UDP_PORT", "15000")
	t.Setenv("PEER_PORTS", "15000,15001")
	t.Setenv("KAFKA_BROKERS", "kafka1:9092, kafka2:9092")
	t.Setenv("HEARTBEAT_INTERVAL", "1s")
	t.Setenv("HEARTBEAT_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UDPPort != 15000 {
		t.Errorf("UDPPort = %d", cfg.UDPPort)
	}
	if len(cfg.PeerPorts) != 2 || cfg.PeerPorts[0] != 15000 || cfg.PeerPorts[1] != 15001 {
		t.Errorf("PeerPorts = %v", cfg.PeerPorts)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.HeartbeatInterval != time.Second {
		t.Errorf("HeartbeatInterval = %v", cfg.HeartbeatInterval)
	}
}

func TestLoadRejectsBadHeartbeat(t *testing.T) {
	t.Setenv("SERVER_ID", "server1")
	t.Setenv("HEARTBEAT_INTERVAL", "30s")
	t.Setenv("HEARTBEAT_TIMEOUT", "10s")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when timeout <= interval")
	}
}
