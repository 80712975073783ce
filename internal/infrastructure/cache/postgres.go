package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"AlphaScreener/internal/ports"
)

// DefaultTable is the table analyses are cached in.
const DefaultTable = "analysis_cache"

// Postgres keeps entries in a table with an expiry column:
//
//	CREATE TABLE analysis_cache (
//	    key        TEXT PRIMARY KEY,
//	    value      JSONB NOT NULL,
//	    expires_at TIMESTAMPTZ
//	);
type Postgres struct {
	db    *sql.DB
	table string
	psql  sq.StatementBuilderType
	now   func() time.Time
}

var _ ports.Cache = (*Postgres)(nil)

// NewPostgres wires a sql.DB opened with the lib/pq driver.
func NewPostgres(db *sql.DB, table string) *Postgres {
	if table == "" {
		table = DefaultTable
	}
	return &Postgres{
		db:    db,
		table: pq.QuoteIdentifier(table),
		psql:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:   time.Now,
	}
}

func (p *Postgres) Get(ctx context.Context, key string, dst any) (bool, error) {
	query, args, err := p.selectLive(key, "value").ToSql()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}

	var raw []byte
	err = p.db.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query cache: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	query, args, err := p.upsert(key, raw, ttl).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert cache: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	query, args, err := p.psql.Delete(p.table).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete cache: %w", err)
	}
	return nil
}

func (p *Postgres) Exists(ctx context.Context, key string) (bool, error) {
	query, args, err := p.selectLive(key, "1").ToSql()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}
	var one int
	err = p.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query cache: %w", err)
	}
	return true, nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, "DELETE FROM "+p.table); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

func (p *Postgres) selectLive(key, column string) sq.SelectBuilder {
	return p.psql.Select(column).
		From(p.table).
		Where(sq.Eq{"key": key}).
		Where(sq.Or{sq.Eq{"expires_at": nil}, sq.Gt{"expires_at": p.now().UTC()}})
}

func (p *Postgres) upsert(key string, raw []byte, ttl time.Duration) sq.InsertBuilder {
	var expiresAt any
	if at := expiry(p.now(), ttl); !at.IsZero() {
		expiresAt = at.UTC()
	}
	return p.psql.Insert(p.table).
		Columns("key", "value", "expires_at").
		Values(key, string(raw), expiresAt).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at")
}
