package qa

import "strings"

// DefaultSpanishMarkers are function words and accented words common in
// Spanish support questions.
var DefaultSpanishMarkers = []string{
	"código", "cómo", "dónde", "qué", "cuál", "mi", "no", "sí",
	"ayuda", "registro", "hola", "buenas",
}

// DetectorConfig configures the marker-word heuristic.
type DetectorConfig struct {
	Markers   []string
	Default   Language
	Alternate Language
}

// Detector picks a collection by counting marker words. It is a coarse
// heuristic: any text without a marker, foreign or not, maps to Default.
type Detector struct {
	markers   []string
	fallback  Language
	alternate Language
}

// NewDetector builds a detector, filling unset fields with the Spanish/English defaults.
func NewDetector(cfg DetectorConfig) *Detector {
	markers := cfg.Markers
	if len(markers) == 0 {
		markers = DefaultSpanishMarkers
	}
	lowered := make([]string, 0, len(markers))
	for _, marker := range markers {
		if strings.TrimSpace(marker) == "" {
			continue
		}
		lowered = append(lowered, strings.ToLower(marker))
	}
	d := &Detector{markers: lowered, fallback: cfg.Default, alternate: cfg.Alternate}
	if d.fallback == "" {
		d.fallback = LanguageEnglish
	}
	if d.alternate == "" {
		d.alternate = LanguageSpanish
	}
	return d
}

// Detect returns the alternate language when any marker occurs in text.
func (d *Detector) Detect(text string) Language {
	if d.countMarkers(text) > 0 {
		return d.alternate
	}
	return d.fallback
}

func (d *Detector) countMarkers(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, marker := range d.markers {
		if strings.Contains(lower, marker) {
			count++
		}
	}
	return count
}
