package store

import (
	"context"
	"errors"
	"time"
)

// Logical keys shared by every backend.
const (
	KeyAttendance = "attendance-records"
	KeyStaff      = "staff-list"
)

// ErrNotFound is returned by Get when the key has never been set or was removed.
var ErrNotFound = errors.New("key not found")

// Store is the persistent key-value collaborator. Values are opaque payloads.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// NextID returns a time-derived id strictly greater than max.
func NextID(now time.Time, max int64) int64 {
	id := now.UnixMilli()
	if id <= max {
		id = max + 1
	}
	return id
}
