package attendance

import (
	"context"
	"time"

	"staffattendance/internal/apperr"
	"staffattendance/internal/calendar"
)

// DaySummary counts one day's check-ins by status.
type DaySummary struct {
	Date   string `json:"date"`
	Total  int    `json:"total"`
	OnTime int    `json:"onTime"`
	Late   int    `json:"late"`
}

// DayCount is one bar of the weekly chart.
type DayCount struct {
	Date  string `json:"date"`
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Summary tallies the records dated date.
func (l *Ledger) Summary(ctx context.Context, date string) DaySummary {
	s := DaySummary{Date: date}
	for _, r := range l.ListForDate(ctx, date) {
		s.Total++
		switch r.Status {
		case calendar.OnTime:
			s.OnTime++
		case calendar.Late:
			s.Late++
		}
	}
	return s
}

// WeeklyCounts returns Monday..Friday check-in counts for the week that
// contains ref.
func (l *Ledger) WeeklyCounts(ctx context.Context, ref string) ([]DayCount, error) {
	if !calendar.ValidDate(ref) {
		return nil, apperr.Invalid("date %q must be YYYY-MM-DD", ref)
	}
	days, err := l.cal.WeekOf(ref)
	if err != nil {
		return nil, apperr.Invalid("date %q: %v", ref, err)
	}

	counts := make(map[string]int, len(days))
	for _, r := range l.read(ctx) {
		counts[r.Date]++
	}

	out := make([]DayCount, 0, len(days))
	for _, d := range days {
		t, _ := time.Parse(calendar.DateLayout, d)
		out = append(out, DayCount{Date: d, Day: t.Weekday().String()[:3], Count: counts[d]})
	}
	return out, nil
}
