package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"staffattendance/internal/apperr"
)

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, err := s.Get(ctx, KeyStaff); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing: err = %v, want ErrNotFound", err)
	}
	if err := s.Set(ctx, KeyStaff, []byte(`[1]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, KeyStaff, []byte(`[1,2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Get(ctx, KeyStaff)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[1,2]` {
		t.Fatalf("get = %s, want [1,2]", got)
	}
	if err := s.Set(ctx, KeyAttendance, []byte(`[]`)); err != nil {
		t.Fatalf("set second key: %v", err)
	}
	if err := s.Remove(ctx, KeyStaff); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Get(ctx, KeyStaff); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get removed: err = %v", err)
	}
	if err := s.Remove(ctx, KeyStaff); err != nil {
		t.Fatalf("remove missing: %v", err)
	}
	if got, err := s.Get(ctx, KeyAttendance); err != nil || string(got) != `[]` {
		t.Fatalf("other key disturbed: %s %v", got, err)
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	_ = m.Set(ctx, "k", buf)
	buf[0] = 'x'
	got, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %s", got)
	}
}

func TestSQLite(t *testing.T) {
	db, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	exercise(t, db)
}

func TestSQLiteClosedIsUnavailable(t *testing.T) {
	db, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	_ = db.Close()
	err = db.Set(context.Background(), KeyStaff, []byte(`[]`))
	if !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Fatalf("set on closed db: err = %v", err)
	}
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	defer r.Close()
	exercise(t, r)

	_ = r.Set(context.Background(), KeyAttendance, []byte("v"))
	if !mr.Exists("test:" + KeyAttendance) {
		t.Fatal("expected prefixed key in redis")
	}
}

func TestRedisDownIsUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	r := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "")
	mr.Close()

	ctx := context.Background()
	if err := r.Set(ctx, KeyStaff, []byte("x")); !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Fatalf("set: err = %v", err)
	}
	if _, err := r.Get(ctx, KeyStaff); !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Fatalf("get: err = %v", err)
	}
	if err := r.Ping(ctx); err == nil {
		t.Fatal("ping should fail")
	}
}

func TestOpen(t *testing.T) {
	s, closeFn, err := Open(Options{Backend: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("got %T", s)
	}
	if _, _, err := Open(Options{Backend: "etcd"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNextID(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	if got := NextID(now, 0); got != now.UnixMilli() {
		t.Fatalf("NextID = %d", got)
	}
	if got := NextID(now, now.UnixMilli()); got != now.UnixMilli()+1 {
		t.Fatalf("NextID with equal max = %d", got)
	}
	if got := NextID(now, now.UnixMilli()+50); got != now.UnixMilli()+51 {
		t.Fatalf("NextID with future max = %d", got)
	}
}
