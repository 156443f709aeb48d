package store

import "fmt"

// Options selects and configures a backend.
type Options struct {
	Backend     string // memory | redis | postgres | sqlite
	DatabaseURL string
	SQLitePath  string
	RedisAddr   string
	RedisPrefix string
}

// Open builds the configured backend. The returned close func is never nil.
func Open(opts Options) (Store, func() error, error) {
	switch opts.Backend {
	case "memory":
		return NewMemory(), func() error { return nil }, nil
	case "redis":
		r := NewRedis(opts.RedisAddr, opts.RedisPrefix)
		return r, r.Close, nil
	case "postgres":
		db, err := NewPostgres(opts.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case "sqlite", "":
		db, err := NewSQLite(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
