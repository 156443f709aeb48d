package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"staffattendance/internal/calendar"
)

// EnvelopeVersion is the current on-disk shape of every collection.
const EnvelopeVersion = 1

var (
	// ErrCorrupt is returned when a stored payload cannot be parsed.
	ErrCorrupt = errors.New("corrupt payload")
	// ErrPartial accompanies the items Decode could read when others were
	// skipped. Writing those items back would erase the skipped ones.
	ErrPartial = errors.New("payload has unreadable items")
)

var (
	codec    = sonic.ConfigStd
	validate = newValidator()
)

// newValidator adds the strict calendar tags: caldate is YYYY-MM-DD and
// clock is zero-padded HH:mm.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("caldate", func(fl validator.FieldLevel) bool {
		return calendar.ValidDate(fl.Field().String())
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return calendar.ValidTime(fl.Field().String())
	})
	return v
}

type envelope[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// Encode validates items and wraps them in a versioned envelope.
func Encode[T any](items []T) ([]byte, error) {
	for i := range items {
		if err := validate.Struct(items[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	if items == nil {
		items = []T{}
	}
	return codec.Marshal(envelope[T]{Version: EnvelopeVersion, Items: items})
}

// Decode parses either the versioned envelope or a bare legacy array.
// Items that fail validation are skipped and logged, and the readable items
// come back together with ErrPartial. A payload that does not parse at all
// yields ErrCorrupt.
func Decode[T any](raw []byte, key string, lg *log.Logger) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var parts []json.RawMessage
	if raw[0] == '[' {
		if err := codec.Unmarshal(raw, &parts); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", key, ErrCorrupt, err)
		}
	} else {
		var env envelope[json.RawMessage]
		if err := codec.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", key, ErrCorrupt, err)
		}
		if env.Version != EnvelopeVersion {
			return nil, fmt.Errorf("%s: %w: unsupported version %d", key, ErrCorrupt, env.Version)
		}
		parts = env.Items
	}

	out := make([]T, 0, len(parts))
	for i, part := range parts {
		var item T
		if err := codec.Unmarshal(part, &item); err != nil {
			logf(lg, "%s: skipping item %d: %v", key, i, err)
			continue
		}
		if err := validate.Struct(item); err != nil {
			logf(lg, "%s: skipping item %d: %v", key, i, err)
			continue
		}
		out = append(out, item)
	}
	if skipped := len(parts) - len(out); skipped > 0 {
		return out, fmt.Errorf("%s: %w: %d of %d skipped", key, ErrPartial, skipped, len(parts))
	}
	return out, nil
}

func logf(lg *log.Logger, format string, args ...any) {
	if lg == nil {
		lg = log.Default()
	}
	lg.Printf(format, args...)
}
