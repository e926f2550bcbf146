package sink

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/clinic-phone/internal/model"
)

// Pool is the subset of pgxpool.Pool the postgres sink uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// Postgres stores entries in a shared database.
type Postgres struct {
	pool Pool
}

// NewPostgres creates a Postgres sink with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*Postgres, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &Postgres{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS lookups (
	id           UUID PRIMARY KEY,
	query        TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	source_url   TEXT NOT NULL,
	source_label TEXT NOT NULL,
	engine       TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_lookups_created_at ON lookups(created_at DESC);
`

// Migrate creates the lookups table.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO lookups (id, query, phone_number, source_url, source_label, engine, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID.String(), e.Query, e.PhoneNumber, e.SourceURL, e.SourceLabel, string(e.Engine), e.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert lookup")
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id::text, query, phone_number, source_url, source_label, engine, created_at FROM lookups ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lookups")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			id     string
			engine string
		)
		if err := rows.Scan(&id, &e.Query, &e.PhoneNumber, &e.SourceURL, &e.SourceLabel, &engine, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lookup")
		}
		e.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: parse id %s", id)
		}
		e.Engine = model.Engine(engine)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate lookups")
}
