package qa

// DefaultMinScore is the confidence floor used when none is configured.
const DefaultMinScore = 1

// MatcherConfig tunes best-match selection.
type MatcherConfig struct {
	// MinScore is the lowest aggregate score trusted over a generative answer.
	MinScore int
}

// Matcher selects the best canned answer for a message. It holds read-only
// copies of the collections and is safe for concurrent use.
type Matcher struct {
	collections Collections
	minScore    int
}

// NewMatcher snapshots collections so later changes by the caller are not observed.
func NewMatcher(collections Collections, cfg MatcherConfig) *Matcher {
	snapshot := make(Collections, len(collections))
	for lang, entries := range collections {
		copied := make([]Entry, len(entries))
		for i, entry := range entries {
			entry.Keywords = append([]string(nil), entry.Keywords...)
			entry.Links = append([]Link(nil), entry.Links...)
			copied[i] = entry
		}
		snapshot[lang] = copied
	}
	minScore := cfg.MinScore
	if minScore < DefaultMinScore {
		minScore = DefaultMinScore
	}
	return &Matcher{collections: snapshot, minScore: minScore}
}

// FindBestMatch scores every entry of the language's collection in stored
// order. Ties keep the entry seen first. The entry is returned only when its
// score reaches the confidence floor.
func (m *Matcher) FindBestMatch(message string, lang Language) MatchResult {
	if m == nil {
		return MatchResult{}
	}
	entries := m.collections[lang]

	best := -1
	highest := 0
	for i := range entries {
		score := Score(message, entries[i].Keywords)
		if score > highest {
			highest = score
			best = i
		}
	}

	if best < 0 || highest < m.minScore {
		return MatchResult{Score: highest}
	}
	winner := entries[best]
	return MatchResult{Entry: &winner, Score: highest}
}

// Size reports how many entries are loaded for lang.
func (m *Matcher) Size(lang Language) int {
	if m == nil {
		return 0
	}
	return len(m.collections[lang])
}

// MinScore exposes the effective confidence floor.
func (m *Matcher) MinScore() int {
	return m.minScore
}
