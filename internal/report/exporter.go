package report

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"staffattendance/internal/attendance"
	"staffattendance/internal/calendar"
	"staffattendance/internal/queue"
)

// Exporter keeps one workbook per day in Dir in step with the ledger.
type Exporter struct {
	Ledger *attendance.Ledger
	Cal    calendar.Calendar
	Dir    string
	Logger *log.Logger
}

func (e *Exporter) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// ExportDay rewrites the workbook for date. A failed read leaves the
// previous file in place.
func (e *Exporter) ExportDay(ctx context.Context, date string) (string, error) {
	recs, err := e.Ledger.RecordsForDate(ctx, date)
	if err != nil {
		return "", err
	}
	return WriteFile(e.Dir, date, recs)
}

// Handle refreshes the export for the day a check-in event belongs to.
// Messages of other types are ignored.
func (e *Exporter) Handle(ctx context.Context, msg queue.Message) error {
	if msg.Type != queue.TypeCheckIn {
		return nil
	}
	rec, err := queue.DecodeCheckIn(msg)
	if err != nil {
		return err
	}
	path, err := e.ExportDay(ctx, rec.Date)
	if err != nil {
		return err
	}
	e.logf("check-in %d by %s exported to %s", rec.ID, rec.Name, path)
	return nil
}

// Run consumes q until ctx ends.
func (e *Exporter) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		if err := e.Handle(ctx, msg); err != nil {
			e.logf("export for %s message failed: %v", msg.Type, err)
		}
	}
	return nil
}

// Schedule registers the end-of-day snapshot on a cron evaluated in the
// organisation's timezone. The caller starts and stops the returned cron.
func (e *Exporter) Schedule(expr string) (*cron.Cron, error) {
	loc := e.Cal.Location
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(expr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		date := e.Cal.Today()
		path, err := e.ExportDay(ctx, date)
		if err != nil {
			e.logf("scheduled export for %s failed: %v", date, err)
			return
		}
		e.logf("scheduled export for %s written to %s", date, path)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
