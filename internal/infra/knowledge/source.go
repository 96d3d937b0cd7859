// Package knowledge loads the per-language Q&A collections at startup.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/yanqian/support-assistant/internal/domain/qa"
)

// ErrUnknownLanguage is returned when a source has nothing configured for a language.
var ErrUnknownLanguage = errors.New("no collection configured for language")

// Source yields the ordered entries of one language collection.
type Source interface {
	Entries(ctx context.Context, lang qa.Language) ([]qa.Entry, error)
}

// DecodeEntries parses a JSON array of entries, preserving order.
func DecodeEntries(r io.Reader) ([]qa.Entry, error) {
	var entries []qa.Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return entries, nil
}

// Load reads every language from src. A failing language is logged and left
// empty so the service still starts and falls through to generation.
func Load(ctx context.Context, src Source, langs []qa.Language, logger *slog.Logger) qa.Collections {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "knowledge.loader")
	collections := make(qa.Collections, len(langs))
	for _, lang := range langs {
		entries, err := src.Entries(ctx, lang)
		if err != nil {
			log.Error("knowledge collection unavailable", "language", lang, "error", err)
			collections[lang] = nil
			continue
		}
		collections[lang] = entries
		log.Info("knowledge collection loaded", "language", lang, "entries", len(entries))
	}
	return collections
}
