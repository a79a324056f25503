package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/clients"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
)

// LibreBackend calls a LibreTranslate-compatible HTTP API. Requests run
// through a failsafe executor so transient backend hiccups are retried and a
// flapping backend trips the circuit breaker instead of stalling chat
// delivery.
type LibreBackend struct {
	client   *http.Client
	executor func(ctx context.Context, fn func() (*http.Response, error)) (*http.Response, error)
	apiURL   string
	apiKey   string
}

// NewLibreBackend creates an HTTP translation backend.
func NewLibreBackend(cfg Config) *LibreBackend {
	breaker := clients.NewCircuitBreaker(clients.CircuitBreakerConfig{
		Name: "translate",
	})
	executor := clients.NewHTTPExecutor(clients.HTTPExecutorConfig{
		MaxRetries:     2,
		BaseDelay:      100 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		CircuitBreaker: breaker,
	})

	return &LibreBackend{
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: clients.DefaultTransport(),
		},
		executor: func(ctx context.Context, fn func() (*http.Response, error)) (*http.Response, error) {
			return clients.ExecuteHTTP(ctx, executor, fn)
		},
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		apiKey: cfg.APIKey,
	}
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate posts the text to the backend and returns the translated form.
func (b *LibreBackend) Translate(ctx context.Context, text string, target proto.Language) (string, error) {
	payload, err := json.Marshal(libreRequest{
		Q:      text,
		Source: "auto",
		Target: Code(target),
		Format: "text",
		APIKey: b.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("translate: marshal request: %w", err)
	}

	resp, err := b.executor(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL+"/translate", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return b.client.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("translate: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("translate: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var decoded libreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("translate: decode response: %w", err)
	}
	if decoded.TranslatedText == "" {
		return "", fmt.Errorf("translate: empty result")
	}
	return decoded.TranslatedText, nil
}
