package translate

import (
	"context"
	"errors"
	"strings"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
)

// ErrNoTranslation is returned when the static phrasebook has no entry for
// the requested text and language. Callers fall back to the original text.
var ErrNoTranslation = errors.New("translate: no translation available")

// StaticBackend serves translations from a fixed phrasebook. It needs no
// network and keeps demo and test runs deterministic.
type StaticBackend struct {
	phrases map[string]map[proto.Language]string
}

// NewStaticBackend creates a backend over the given phrasebook. Lookup keys
// are matched case-insensitively.
func NewStaticBackend(phrases map[string]map[proto.Language]string) *StaticBackend {
	normalized := make(map[string]map[proto.Language]string, len(phrases))
	for text, byLang := range phrases {
		normalized[strings.ToLower(strings.TrimSpace(text))] = byLang
	}
	return &StaticBackend{phrases: normalized}
}

// DefaultPhrases returns the built-in phrasebook.
func DefaultPhrases() map[string]map[proto.Language]string {
	return map[string]map[proto.Language]string{
		"hello": {
			proto.LanguageDE: "Hallo",
			proto.LanguageEN: "Hello",
			proto.LanguageZH: "你好",
			proto.LanguageTR: "Merhaba",
		},
		"good morning": {
			proto.LanguageDE: "Guten Morgen",
			proto.LanguageEN: "Good morning",
			proto.LanguageZH: "早上好",
			proto.LanguageTR: "Günaydın",
		},
		"thank you": {
			proto.LanguageDE: "Danke",
			proto.LanguageEN: "Thank you",
			proto.LanguageZH: "谢谢",
			proto.LanguageTR: "Teşekkürler",
		},
		"bye": {
			proto.LanguageDE: "Tschüss",
			proto.LanguageEN: "Bye",
			proto.LanguageZH: "再见",
			proto.LanguageTR: "Güle güle",
		},
	}
}

// Translate looks the text up in the phrasebook.
func (b *StaticBackend) Translate(_ context.Context, text string, target proto.Language) (string, error) {
	byLang, ok := b.phrases[strings.ToLower(strings.TrimSpace(text))]
	if !ok {
		return "", ErrNoTranslation
	}
	translated, ok := byLang[target]
	if !ok {
		return "", ErrNoTranslation
	}
	return translated, nil
}
