package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/support-assistant/internal/domain/qa"
)

// PostgresSource reads entries from a table shaped like:
//
//	CREATE TABLE qa_entries (
//	    language  text    NOT NULL,
//	    position  integer NOT NULL,
//	    question  text    NOT NULL,
//	    category  text    NOT NULL DEFAULT '',
//	    keywords  text[]  NOT NULL DEFAULT '{}',
//	    answer    text    NOT NULL,
//	    links     jsonb   NOT NULL DEFAULT '[]',
//	    PRIMARY KEY (language, position)
//	);
type PostgresSource struct {
	pool  *pgxpool.Pool
	query string
}

// NewPostgresSource constructs the source; table defaults to qa_entries.
func NewPostgresSource(pool *pgxpool.Pool, table string) *PostgresSource {
	if table == "" {
		table = "qa_entries"
	}
	return &PostgresSource{pool: pool, query: entriesQuery(table)}
}

func entriesQuery(table string) string {
	return fmt.Sprintf(`
		SELECT question, category, keywords, answer, links
		FROM %s
		WHERE language = $1
		ORDER BY position
	`, pgx.Identifier{table}.Sanitize())
}

// Entries implements Source.
func (s *PostgresSource) Entries(ctx context.Context, lang qa.Language) ([]qa.Entry, error) {
	rows, err := s.pool.Query(ctx, s.query, string(lang))
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []qa.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (qa.Entry, error) {
	var (
		entry qa.Entry
		links []byte
	)
	if err := row.Scan(&entry.Question, &entry.Category, &entry.Keywords, &entry.Answer, &links); err != nil {
		return qa.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &entry.Links); err != nil {
			return qa.Entry{}, fmt.Errorf("decode links for %q: %w", entry.Question, err)
		}
	}
	return entry, nil
}

var _ Source = (*PostgresSource)(nil)
