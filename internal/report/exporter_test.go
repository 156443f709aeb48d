package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"staffattendance/internal/apperr"
	"staffattendance/internal/attendance"
	"staffattendance/internal/calendar"
	"staffattendance/internal/queue"
	"staffattendance/internal/store"
)

// outage fails every read while down is set.
type outage struct {
	*store.Memory
	down bool
}

func (o *outage) Get(ctx context.Context, key string) ([]byte, error) {
	if o.down {
		return nil, apperr.Storage("get", errors.New("connection refused"))
	}
	return o.Memory.Get(ctx, key)
}

func newExporter(t *testing.T) (*Exporter, *attendance.Ledger) {
	t.Helper()
	return newExporterOn(t, store.NewMemory())
}

func newExporterOn(t *testing.T, s store.Store) (*Exporter, *attendance.Ledger) {
	t.Helper()
	cal, err := calendar.New("UTC", "09:00")
	if err != nil {
		t.Fatal(err)
	}
	cal.Now = func() time.Time { return time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC) }
	quiet := log.New(io.Discard, "", 0)
	ledger := attendance.NewLedger(s, cal, quiet)
	return &Exporter{Ledger: ledger, Cal: cal, Dir: t.TempDir(), Logger: quiet}, ledger
}

func TestRunExportsOnCheckIn(t *testing.T) {
	e, ledger := newExporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec, err := ledger.RecordCheckIn(ctx, attendance.CheckIn{Name: "Jane", Date: "2024-03-20", Time: "08:45"})
	if err != nil {
		t.Fatal(err)
	}
	q := queue.NewInMemory(4)
	msg, _ := queue.CheckIn(rec)
	_ = q.Publish(ctx, queue.Message{Type: "other"})
	_ = q.Publish(ctx, msg)

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, q) }()

	path := filepath.Join(e.Dir, Filename("2024-03-20"))
	deadline := time.Now().Add(3 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("export not written")
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, _ := f.GetRows(f.GetSheetName(0))
	if len(rows) != 2 || rows[1][1] != "Jane" || rows[1][4] != "on-time" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestHandleRejectsMalformedEvent(t *testing.T) {
	e, _ := newExporter(t)
	if err := e.Handle(context.Background(), queue.Message{Type: queue.TypeCheckIn, Body: []byte("{")}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSchedule(t *testing.T) {
	e, _ := newExporter(t)
	if _, err := e.Schedule("not a cron"); err == nil {
		t.Fatal("malformed schedule accepted")
	}
	c, err := e.Schedule("55 23 * * *")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Entries()) != 1 {
		t.Fatalf("entries = %d", len(c.Entries()))
	}
}

func TestExportDayKeepsFileDuringOutage(t *testing.T) {
	s := &outage{Memory: store.NewMemory()}
	e, ledger := newExporterOn(t, s)
	ctx := context.Background()
	if _, err := ledger.RecordCheckIn(ctx, attendance.CheckIn{Name: "Jane", Date: "2024-03-20", Time: "08:45"}); err != nil {
		t.Fatal(err)
	}
	path, err := e.ExportDay(ctx, "2024-03-20")
	if err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)

	s.down = true
	if _, err := e.ExportDay(ctx, "2024-03-20"); !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Fatalf("export during outage: err = %v", err)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Fatal("previous export overwritten during outage")
	}
}
