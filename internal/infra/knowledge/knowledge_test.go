package knowledge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/support-assistant/internal/domain/qa"
)

type stubSource struct {
	entriesFn func(ctx context.Context, lang qa.Language) ([]qa.Entry, error)
}

func (s stubSource) Entries(ctx context.Context, lang qa.Language) ([]qa.Entry, error) {
	return s.entriesFn(ctx, lang)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecodeEntriesKeepsOrderAndLinks(t *testing.T) {
	raw := `[
		{"question": "¿Dónde encuentro mi código?", "category": "registro",
		 "keywords": ["código", "donde esta"], "answer": "En la portada interna.",
		 "links": ["https://www.richmondlp.com/register", {"label": "Ayuda", "url": "https://rlp-ug.knowledgeowl.com/help"}]},
		{"question": "Olvidé mi contraseña", "category": "acceso", "keywords": ["contraseña"], "answer": "Usa Forgotten password."}
	]`
	entries, err := DecodeEntries(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "registro", entries[0].Category)
	require.Equal(t, []string{"código", "donde esta"}, entries[0].Keywords)
	require.Equal(t, []qa.Link{
		{Label: "https://www.richmondlp.com/register", URL: "https://www.richmondlp.com/register"},
		{Label: "Ayuda", URL: "https://rlp-ug.knowledgeowl.com/help"},
	}, entries[0].Links)
	require.Equal(t, "acceso", entries[1].Category)
	require.Empty(t, entries[1].Links)
}

func TestDecodeEntriesRejectsMalformed(t *testing.T) {
	_, err := DecodeEntries(strings.NewReader(`{"question": "not an array"}`))
	require.Error(t, err)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	esPath := filepath.Join(dir, "spanish.json")
	require.NoError(t, os.WriteFile(esPath, []byte(`[{"question":"q","keywords":["hola"],"answer":"a"}]`), 0o600))

	src := NewFileSource(map[qa.Language]string{
		qa.LanguageSpanish: esPath,
		qa.LanguageEnglish: filepath.Join(dir, "missing.json"),
	})

	entries, err := src.Entries(context.Background(), qa.LanguageSpanish)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = src.Entries(context.Background(), qa.LanguageEnglish)
	require.Error(t, err)

	_, err = src.Entries(context.Background(), qa.Language("fr"))
	require.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestLoadLeavesFailingLanguageEmpty(t *testing.T) {
	src := stubSource{entriesFn: func(_ context.Context, lang qa.Language) ([]qa.Entry, error) {
		if lang == qa.LanguageEnglish {
			return nil, errors.New("boom")
		}
		return []qa.Entry{{Question: "q", Answer: "a"}}, nil
	}}

	collections := Load(context.Background(), src, []qa.Language{qa.LanguageSpanish, qa.LanguageEnglish}, discardLogger())
	require.Len(t, collections[qa.LanguageSpanish], 1)
	require.Empty(t, collections[qa.LanguageEnglish])
	require.Contains(t, collections, qa.LanguageEnglish)
}

func TestLoadShippedCollections(t *testing.T) {
	src := NewFileSource(map[qa.Language]string{
		qa.LanguageSpanish: filepath.Join("..", "..", "..", "qa-data", "spanish.json"),
		qa.LanguageEnglish: filepath.Join("..", "..", "..", "qa-data", "english.json"),
	})
	for _, lang := range []qa.Language{qa.LanguageSpanish, qa.LanguageEnglish} {
		entries, err := src.Entries(context.Background(), lang)
		require.NoError(t, err, lang)
		require.NotEmpty(t, entries, lang)
		for _, entry := range entries {
			require.NotEmpty(t, entry.Question)
			require.NotEmpty(t, entry.Answer, entry.Question)
			require.NotEmpty(t, entry.Keywords, entry.Question)
		}
	}
}

func TestEntriesQuerySanitizesTable(t *testing.T) {
	query := entriesQuery(`qa"; DROP TABLE x; --`)
	require.Contains(t, query, `"qa""; DROP TABLE x; --"`)
	require.Contains(t, entriesQuery("qa_entries"), `FROM "qa_entries"`)
}

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "abc.r2.cloudflarestorage.com", sanitizeEndpoint("https://abc.r2.cloudflarestorage.com/bucket"))
	require.Equal(t, "localhost:9000", sanitizeEndpoint(" http://localhost:9000 "))
	require.Equal(t, "", sanitizeEndpoint(""))
}

func TestNewObjectSourceUnknownLanguage(t *testing.T) {
	src, err := NewObjectSource(ObjectSourceConfig{
		Endpoint: "http://localhost:9000",
		Bucket:   "kb",
		Objects:  map[qa.Language]string{qa.LanguageSpanish: "spanish.json"},
	}, discardLogger())
	require.NoError(t, err)
	_, err = src.Entries(context.Background(), qa.LanguageEnglish)
	require.ErrorIs(t, err, ErrUnknownLanguage)
}
