package logging

import "testing"

func TestNewLoggerWithServer(t *testing.T) {
	l := NewLoggerWithServer("S1")
	entry := l.WithField("k", "v")
	if entry == nil {
		t.Fatalf("expected non-nil entry")
	}
}

func TestNewNopDiscards(t *testing.T) {
	l := NewNop()
	l.Info("goes nowhere")
}
