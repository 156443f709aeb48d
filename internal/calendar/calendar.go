package calendar

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DefaultTimezone = "Asia/Kuala_Lumpur"
	DefaultCutoff   = "09:00"
)

// Status is the derived attendance classification.
type Status string

const (
	OnTime   Status = "on-time"
	Late     Status = "late"
	TooEarly Status = "too-early"
)

// Calendar fixes the organisation's timezone and on-time cutoff. Every date
// and time string stored or compared by the service goes through it.
type Calendar struct {
	Location *time.Location
	Cutoff   string
	Now      func() time.Time
}

// New loads tz and validates cutoff. Empty values fall back to the defaults.
func New(tz, cutoff string) (Calendar, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	if cutoff == "" {
		cutoff = DefaultCutoff
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Calendar{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	if !ValidTime(cutoff) {
		return Calendar{}, fmt.Errorf("cutoff %q is not HH:mm", cutoff)
	}
	return Calendar{Location: loc, Cutoff: cutoff, Now: time.Now}, nil
}

func (c Calendar) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

// Current is the present instant in the organisation's timezone.
func (c Calendar) Current() time.Time { return c.now() }

// Today is the current local date as YYYY-MM-DD.
func (c Calendar) Today() string { return c.now().Format(DateLayout) }

// Clock is the current local time of day as HH:mm.
func (c Calendar) Clock() string { return c.now().Format(TimeLayout) }

// Classify compares a zero-padded HH:mm against the cutoff as strings;
// anything at or before the cutoff is on time.
func (c Calendar) Classify(hhmm string) Status {
	cutoff := c.Cutoff
	if cutoff == "" {
		cutoff = DefaultCutoff
	}
	if hhmm <= cutoff {
		return OnTime
	}
	return Late
}

// WeekOf returns Monday through Friday of the week containing date.
func (c Calendar) WeekOf(date string) ([]string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, err
	}
	offset := (int(d.Weekday()) + 6) % 7
	monday := d.AddDate(0, 0, -offset)
	days := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		days = append(days, monday.AddDate(0, 0, i).Format(DateLayout))
	}
	return days, nil
}

// ValidDate reports whether s is exactly YYYY-MM-DD and a real date.
func ValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidTime reports whether s is exactly zero-padded HH:mm.
func ValidTime(s string) bool {
	if len(s) != len(TimeLayout) {
		return false
	}
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}
