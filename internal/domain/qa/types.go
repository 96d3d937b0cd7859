package qa

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Language identifies which knowledge base collection to search.
type Language string

const (
	// LanguageSpanish selects the Spanish collection.
	LanguageSpanish Language = "es"
	// LanguageEnglish selects the English collection.
	LanguageEnglish Language = "en"
)

// ParseLanguage validates a wire value such as "es" or "EN".
func ParseLanguage(raw string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(raw))) {
	case LanguageSpanish:
		return LanguageSpanish, true
	case LanguageEnglish:
		return LanguageEnglish, true
	default:
		return "", false
	}
}

// Entry is one pre-authored question/answer record of the knowledge base.
type Entry struct {
	Question string   `json:"question"`
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
	Answer   string   `json:"answer"`
	Links    []Link   `json:"links,omitempty"`
}

// Link is appended to an answer when the entry wins.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// UnmarshalJSON accepts either a bare string or a {label,url} object.
func (l *Link) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		l.Label = raw
		l.URL = raw
		return nil
	}
	var obj struct {
		Label string `json:"label"`
		Text  string `json:"text"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode link: %w", err)
	}
	l.URL = obj.URL
	l.Label = obj.Label
	if l.Label == "" {
		l.Label = obj.Text
	}
	if l.Label == "" {
		l.Label = obj.URL
	}
	return nil
}

// String renders the link as a single line.
func (l Link) String() string {
	if l.Label == "" || l.Label == l.URL {
		return l.URL
	}
	if l.URL == "" {
		return l.Label
	}
	return l.Label + ": " + l.URL
}

// Collections maps each supported language to its ordered entries.
type Collections map[Language][]Entry

// MatchResult is produced per query and never cached.
type MatchResult struct {
	Entry *Entry
	Score int
}

// Matched reports whether an entry cleared the confidence floor.
func (r MatchResult) Matched() bool {
	return r.Entry != nil
}
