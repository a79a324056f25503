// Package translate resolves TRANSLATE requests and translation-tagged chat
// messages against a pluggable backend. Backends are selected by
// configuration the same way across deployments; the HTTP backend talks to a
// LibreTranslate-compatible service, the static backend serves fixtures for
// tests and offline demos.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/config"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
)

// Backend translates text into a target language. Implementations must be
// safe for concurrent use; the server calls Translate from connection
// handlers.
type Backend interface {
	Translate(ctx context.Context, text string, target proto.Language) (string, error)
}

// Config holds translation backend settings.
type Config struct {
	Provider string
	APIURL   string
	APIKey   string
}

// LoadConfig reads the TRANSLATE_* env vars. When no provider is set the
// presence of TRANSLATE_URL decides between the HTTP and static backends.
func LoadConfig() Config {
	cfg := Config{
		Provider: config.GetEnv("TRANSLATE_PROVIDER", ""),
		APIURL:   config.GetEnv("TRANSLATE_URL", ""),
		APIKey:   config.GetEnv("TRANSLATE_API_KEY", ""),
	}
	if cfg.Provider == "" {
		if cfg.APIURL != "" {
			cfg.Provider = "libre"
		} else {
			cfg.Provider = "static"
		}
	}
	return cfg
}

// NewBackend builds a backend from config.
func NewBackend(cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Provider) {
	case "libre":
		return NewLibreBackend(cfg), nil
	case "static":
		return NewStaticBackend(DefaultPhrases()), nil
	default:
		return nil, fmt.Errorf("unknown translation provider %q", cfg.Provider)
	}
}

// Code maps the wire language enum to the codes translation services expect.
func Code(lang proto.Language) string {
	switch lang {
	case proto.LanguageDE:
		return "de"
	case proto.LanguageEN:
		return "en"
	case proto.LanguageZH:
		return "zh-CN"
	case proto.LanguageTR:
		return "tr"
	default:
		return "en"
	}
}
