package attendance

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"

	"staffattendance/internal/apperr"
	"staffattendance/internal/calendar"
	"staffattendance/internal/store"
)

// DefaultRecentLimit is used by callers that do not ask for a specific limit.
const DefaultRecentLimit = 3

// Record is one person's check-in for one day.
type Record struct {
	ID          int64           `json:"id" validate:"gte=0"`
	Name        string          `json:"name" validate:"required"`
	Date        string          `json:"date" validate:"required,caldate"`
	CheckInTime string          `json:"checkInTime" validate:"required,clock"`
	Status      calendar.Status `json:"status" validate:"required,oneof=on-time late too-early"`
	Photo       string          `json:"photo,omitempty"`
}

// CheckIn is the caller's request to record attendance.
type CheckIn struct {
	Name  string
	Date  string
	Time  string
	Photo string
}

// Ledger owns the attendance records and the status rule.
type Ledger struct {
	store store.Store
	cal   calendar.Calendar
	lg    *log.Logger

	mu     sync.Mutex
	lastID int64
}

// NewLedger creates a ledger over s.
func NewLedger(s store.Store, cal calendar.Calendar, lg *log.Logger) *Ledger {
	if lg == nil {
		lg = log.Default()
	}
	return &Ledger{store: s, cal: cal, lg: lg}
}

// load returns the stored records. When some items were unreadable it
// returns the rest along with an error matching store.ErrPartial, which
// write paths must treat as a failed read.
func (l *Ledger) load(ctx context.Context) ([]Record, error) {
	raw, err := l.store.Get(ctx, store.KeyAttendance)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("load attendance", err)
	}
	recs, err := store.Decode[Record](raw, store.KeyAttendance, l.lg)
	if errors.Is(err, store.ErrPartial) {
		return recs, apperr.Storage("load attendance", err)
	}
	if err != nil {
		return nil, apperr.Storage("load attendance", err)
	}
	return recs, nil
}

// read is load for query paths: failures degrade to an empty collection.
func (l *Ledger) read(ctx context.Context) []Record {
	recs, err := l.load(ctx)
	switch {
	case errors.Is(err, store.ErrPartial):
		l.lg.Printf("attendance read incomplete: %v", err)
	case err != nil:
		l.lg.Printf("attendance read failed, serving empty list: %v", err)
		return []Record{}
	}
	if recs == nil {
		return []Record{}
	}
	return recs
}

// ListAll returns every stored record in storage order, newest write first.
func (l *Ledger) ListAll(ctx context.Context) []Record {
	return l.read(ctx)
}

// ListForDate returns the records dated date.
func (l *Ledger) ListForDate(ctx context.Context, date string) []Record {
	out := []Record{}
	for _, r := range l.read(ctx) {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out
}

// RecordsForDate is ListForDate for callers that persist what they read,
// such as exports: storage failures are returned instead of degrading.
func (l *Ledger) RecordsForDate(ctx context.Context, date string) ([]Record, error) {
	if !calendar.ValidDate(date) {
		return nil, apperr.Invalid("date %q must be YYYY-MM-DD", date)
	}
	recs, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []Record{}
	for _, r := range recs {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListToday returns the records dated today in the organisation's timezone.
func (l *Ledger) ListToday(ctx context.Context) []Record {
	return l.ListForDate(ctx, l.cal.Today())
}

// ListRecentForUser returns up to limit records for name, most recent first.
func (l *Ledger) ListRecentForUser(ctx context.Context, name string, limit int) ([]Record, error) {
	if limit < 0 {
		return nil, apperr.Invalid("limit must not be negative, got %d", limit)
	}
	name = strings.TrimSpace(name)
	if limit == 0 {
		return []Record{}, nil
	}
	var mine []Record
	for _, r := range l.read(ctx) {
		if r.Name == name {
			mine = append(mine, r)
		}
	}
	return newest(mine, limit), nil
}

// ListRecent returns up to limit records across all staff, most recent first.
func (l *Ledger) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit < 0 {
		return nil, apperr.Invalid("limit must not be negative, got %d", limit)
	}
	if limit == 0 {
		return []Record{}, nil
	}
	return newest(l.read(ctx), limit), nil
}

// newest sorts by (date, checkInTime) descending. Both fields are zero
// padded so plain string comparison orders them chronologically.
func newest(recs []Record, limit int) []Record {
	sorted := append([]Record(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date > sorted[j].Date
		}
		return sorted[i].CheckInTime > sorted[j].CheckInTime
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	if sorted == nil {
		sorted = []Record{}
	}
	return sorted
}

// RecordCheckIn derives the status, replaces any record for the same
// (name, date) and stores the new one at the front.
func (l *Ledger) RecordCheckIn(ctx context.Context, in CheckIn) (Record, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Record{}, apperr.Invalid("name is required")
	}
	if !calendar.ValidDate(in.Date) {
		return Record{}, apperr.Invalid("date %q must be YYYY-MM-DD", in.Date)
	}
	if !calendar.ValidTime(in.Time) {
		return Record{}, apperr.Invalid("check-in time %q must be HH:mm", in.Time)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	recs, err := l.load(ctx)
	if err != nil {
		return Record{}, err
	}

	maxID := l.lastID
	kept := make([]Record, 0, len(recs)+1)
	for _, r := range recs {
		if r.ID > maxID {
			maxID = r.ID
		}
		if r.Name == name && r.Date == in.Date {
			continue
		}
		kept = append(kept, r)
	}

	rec := Record{
		ID:          store.NextID(l.cal.Current(), maxID),
		Name:        name,
		Date:        in.Date,
		CheckInTime: in.Time,
		Status:      l.cal.Classify(in.Time),
		Photo:       strings.TrimSpace(in.Photo),
	}

	raw, err := store.Encode(append([]Record{rec}, kept...))
	if err != nil {
		return Record{}, apperr.Storage("encode attendance", err)
	}
	if err := l.store.Set(ctx, store.KeyAttendance, raw); err != nil {
		return Record{}, apperr.Storage("save attendance", err)
	}
	l.lastID = rec.ID
	return rec, nil
}
