package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/config"
	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/node"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/wire"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *node.Node) {
	gin.SetMode(gin.TestMode)

	n := node.New(config.Config{
		ServerID:          "S1",
		BroadcastAddr:     "127.0.0.1",
		HeartbeatInterval: time.Second,
		HeartbeatTimeout:  5 * time.Second,
		ConnectTimeout:    time.Second,
		MaxPayloadBytes:   wire.DefaultMaxPayload,
	}, nil, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			t.Error("node did not stop on cancel")
		}
	})
	select {
	case <-n.Ready():
	case <-time.After(3 * time.Second):
		t.Fatal("node did not bind")
	}

	router := gin.New()
	Register(router, n, nil)
	return router, n
}

func TestStatusEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "S1", status["server_id"])
	assert.NotEmpty(t, status["uptime"])
	assert.NotEmpty(t, status["features"])
}

func TestScheduleReminderEndpoint(t *testing.T) {
	router, n := setupTestRouter(t)

	body := `{"target":"rita","event":"standup","countdown_seconds":60}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reminders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, n.ReminderCount())

	// Requests without a target or event are rejected before scheduling.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/reminders", strings.NewReader(`{"target":"rita"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, n.ReminderCount())
}

func TestDiscoverEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/discover", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestVersionEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Contains(t, info, "version")
}
