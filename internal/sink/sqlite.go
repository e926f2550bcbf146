package sink

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/clinic-phone/internal/model"
)

// SQLite stores entries in a local database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS lookups (
	id           TEXT PRIMARY KEY,
	query        TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	source_url   TEXT NOT NULL,
	source_label TEXT NOT NULL,
	engine       TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lookups_created_at ON lookups(created_at);
`

// Migrate creates the lookups table.
func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lookups (id, query, phone_number, source_url, source_label, engine, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Query, e.PhoneNumber, e.SourceURL, e.SourceLabel, string(e.Engine), e.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert lookup")
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, phone_number, source_url, source_label, engine, created_at FROM lookups ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lookups")
	}
	defer rows.Close() //nolint:errcheck

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			id        string
			engine    string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &e.Query, &e.PhoneNumber, &e.SourceURL, &e.SourceLabel, &engine, &createdAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lookup")
		}
		e.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse id %s", id)
		}
		e.Engine = model.Engine(engine)
		e.CreatedAt = createdAt
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate lookups")
}
