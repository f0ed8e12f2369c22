// Package store persists parse history in Postgres.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/scnpatch/internal/config"
	"github.com/JonMunkholm/scnpatch/internal/core"
)

// DBTX is the subset of pgx used here. Satisfied by both *pgxpool.Pool and
// pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Open builds a pool from cfg and checks the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS scene_uploads (
	id          UUID PRIMARY KEY,
	filename    TEXT NOT NULL,
	bytes       BIGINT NOT NULL,
	routes      INTEGER NOT NULL,
	channels    INTEGER NOT NULL,
	outputs     INTEGER NOT NULL,
	duration_ns BIGINT NOT NULL,
	status      TEXT NOT NULL,
	error_code  TEXT NOT NULL DEFAULT '',
	ip_address  TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS scene_uploads_created_at_idx ON scene_uploads (created_at DESC);
`

// PostgresHistory is a core.HistoryStore backed by the scene_uploads table.
type PostgresHistory struct {
	db DBTX
}

var (
	_ core.HistoryStore  = (*PostgresHistory)(nil)
	_ core.HistoryPruner = (*PostgresHistory)(nil)
)

// NewPostgresHistory wraps db. Call Migrate once before use.
func NewPostgresHistory(db DBTX) *PostgresHistory {
	return &PostgresHistory{db: db}
}

// Migrate creates the table and index if they do not exist.
func (p *PostgresHistory) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%w: migrate: %w", core.ErrHistoryUnavailable, err)
	}
	return nil
}

func (p *PostgresHistory) Record(ctx context.Context, e core.HistoryEntry) error {
	_, err := p.db.Exec(ctx, `INSERT INTO scene_uploads
		(id, filename, bytes, routes, channels, outputs, duration_ns, status,
		 error_code, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.Filename, e.Bytes, e.Routes, e.Channels, e.Outputs,
		int64(e.Duration), string(e.Status), e.ErrorCode, e.IPAddress,
		e.UserAgent, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: record: %w", core.ErrHistoryUnavailable, err)
	}
	return nil
}

func (p *PostgresHistory) Recent(ctx context.Context, limit int) ([]core.HistoryEntry, error) {
	rows, err := p.db.Query(ctx, `SELECT id, filename, bytes, routes, channels,
		outputs, duration_ns, status, error_code, ip_address, user_agent, created_at
		FROM scene_uploads ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", core.ErrHistoryUnavailable, err)
	}
	defer rows.Close()

	entries := make([]core.HistoryEntry, 0, limit)
	for rows.Next() {
		var (
			e        core.HistoryEntry
			duration int64
			status   string
		)
		if err := rows.Scan(&e.ID, &e.Filename, &e.Bytes, &e.Routes, &e.Channels,
			&e.Outputs, &duration, &status, &e.ErrorCode, &e.IPAddress,
			&e.UserAgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", core.ErrHistoryUnavailable, err)
		}
		e.Duration = time.Duration(duration)
		e.Status = core.ParseStatus(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", core.ErrHistoryUnavailable, err)
	}
	return entries, nil
}

// Prune deletes entries created before the cutoff.
func (p *PostgresHistory) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM scene_uploads WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("%w: prune: %w", core.ErrHistoryUnavailable, err)
	}
	return tag.RowsAffected(), nil
}
