package knowledge

import (
	"context"
	"fmt"
	"os"

	"github.com/yanqian/support-assistant/internal/domain/qa"
)

// FileSource reads one JSON file per language from local disk.
type FileSource struct {
	paths map[qa.Language]string
}

// NewFileSource maps languages to file paths.
func NewFileSource(paths map[qa.Language]string) *FileSource {
	clone := make(map[qa.Language]string, len(paths))
	for lang, path := range paths {
		clone[lang] = path
	}
	return &FileSource{paths: clone}
}

// Entries implements Source.
func (s *FileSource) Entries(_ context.Context, lang qa.Language) ([]qa.Entry, error) {
	path, ok := s.paths[lang]
	if !ok || path == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	entries, err := DecodeEntries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

var _ Source = (*FileSource)(nil)
