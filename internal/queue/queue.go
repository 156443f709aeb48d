package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"staffattendance/internal/attendance"
)

// ErrFull is returned by InMemory.Publish when the buffer has no room.
var ErrFull = errors.New("queue full")

// TypeCheckIn marks a message carrying a recorded attendance.Record.
const TypeCheckIn = "checkin"

// Message represents work to be processed.
type Message struct {
	Type string `json:"type"`
	Body []byte `json:"body"`
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
	Backend() string
}

// CheckIn wraps a stored record as a queue message.
func CheckIn(rec attendance.Record) (Message, error) {
	body, err := sonic.ConfigStd.Marshal(rec)
	if err != nil {
		return Message{}, fmt.Errorf("encode check-in event: %w", err)
	}
	return Message{Type: TypeCheckIn, Body: body}, nil
}

// DecodeCheckIn is the inverse of CheckIn.
func DecodeCheckIn(msg Message) (attendance.Record, error) {
	var rec attendance.Record
	if msg.Type != TypeCheckIn {
		return rec, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	if err := sonic.ConfigStd.Unmarshal(msg.Body, &rec); err != nil {
		return rec, fmt.Errorf("decode check-in event: %w", err)
	}
	return rec, nil
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

func (q *InMemory) Backend() string { return "memory" }

// Publish enqueues a message without waiting for a consumer.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrFull
	}
}

// Consume returns a channel for workers; it closes when ctx ends.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a simple Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
	wait   time.Duration
	lg     *log.Logger
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string, lg *log.Logger) *RedisQueue {
	if key == "" {
		key = "attendance:checkins"
	}
	if lg == nil {
		lg = log.Default()
	}
	return &RedisQueue{client: client, key: key, wait: 5 * time.Second, lg: lg}
}

func (q *RedisQueue) Backend() string { return "redis" }

// Publish enqueues a message.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	raw, err := sonic.ConfigStd.Marshal(msg)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, raw).Err()
}

// Consume streams messages using BRPOP.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, q.wait, q.key).Result()
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				if !errors.Is(err, redis.Nil) {
					q.lg.Printf("queue pop failed: %v", err)
					time.Sleep(time.Second)
				}
				continue
			}
			if len(res) != 2 {
				continue
			}
			var msg Message
			if err := sonic.ConfigStd.UnmarshalFromString(res[1], &msg); err != nil {
				q.lg.Printf("dropping malformed queue message: %v", err)
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
