package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"staffattendance/internal/apperr"
)

type dialect struct {
	driver string
	schema string
	get    string
	upsert string
	delete string
}

var postgresDialect = dialect{
	driver: "pgx",
	schema: `
	CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	get: `SELECT value FROM kv_entries WHERE key = $1`,
	upsert: `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
	delete: `DELETE FROM kv_entries WHERE key = $1`,
}

var sqliteDialect = dialect{
	driver: "sqlite3",
	schema: `
	CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	get: `SELECT value FROM kv_entries WHERE key = ?`,
	upsert: `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
	delete: `DELETE FROM kv_entries WHERE key = ?`,
}

// DB is a key-value table on top of database/sql, backed by Postgres (pgx)
// or SQLite.
type DB struct {
	Client *sql.DB
	d      dialect
}

// NewPostgres opens a Postgres connection with sane pool defaults and
// creates the kv table.
func NewPostgres(connString string) (*DB, error) {
	db, err := sql.Open(postgresDialect.driver, connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return open(db, postgresDialect)
}

// NewSQLite opens (or creates) a SQLite file. Use ":memory:" for a private
// in-memory database.
func NewSQLite(path string) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open(sqliteDialect.driver, dsn)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" a single database and serialises writers
	db.SetMaxOpenConns(1)
	return open(db, sqliteDialect)
}

func open(db *sql.DB, d dialect) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", d.driver, err)
	}
	return &DB{Client: db, d: d}, nil
}

func (s *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.Client.QueryRowContext(ctx, s.d.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperr.Storage("sql get "+key, err)
	}
	return []byte(value), nil
}

func (s *DB) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.Client.ExecContext(ctx, s.d.upsert, key, string(value)); err != nil {
		return apperr.Storage("sql set "+key, err)
	}
	return nil
}

func (s *DB) Remove(ctx context.Context, key string) error {
	if _, err := s.Client.ExecContext(ctx, s.d.delete, key); err != nil {
		return apperr.Storage("sql delete "+key, err)
	}
	return nil
}

func (s *DB) Ping(ctx context.Context) error {
	if s == nil || s.Client == nil {
		return apperr.Storage("sql ping", errors.New("no connection"))
	}
	if err := s.Client.PingContext(ctx); err != nil {
		return apperr.Storage("sql ping", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *DB) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Close()
}
