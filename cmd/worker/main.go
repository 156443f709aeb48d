package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"staffattendance/internal/attendance"
	"staffattendance/internal/calendar"
	"staffattendance/internal/config"
	"staffattendance/internal/queue"
	"staffattendance/internal/report"
	"staffattendance/internal/store"
)

// Worker keeps the daily spreadsheet exports current: it rewrites a day's
// workbook on every queued check-in and snapshots today on a schedule.
func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	lg := cfg.Logger

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, closeStore, err := store.Open(cfg.StoreOptions())
	if err != nil {
		log.Fatalf("store open failed: %v", err)
	}
	defer func() { _ = closeStore() }()

	cal, err := calendar.New(cfg.Timezone, cfg.OnTimeCutoff)
	if err != nil {
		log.Fatalf("calendar: %v", err)
	}

	exp := &report.Exporter{
		Ledger: attendance.NewLedger(st, cal, lg),
		Cal:    cal,
		Dir:    cfg.ExportDir,
		Logger: lg,
	}

	sched, err := exp.Schedule(cfg.ExportCron)
	if err != nil {
		log.Fatalf("export schedule %q: %v", cfg.ExportCron, err)
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()
	lg.Printf("export schedule=%q dir=%q tz=%s", cfg.ExportCron, cfg.ExportDir, cal.Location)

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		r := store.NewRedis(cfg.RedisAddr, cfg.RedisKeyPrefix)
		defer r.Close()
		pingCtx, stop := context.WithTimeout(ctx, 3*time.Second)
		if err := r.Ping(pingCtx); err != nil {
			lg.Printf("WARNING: redis not reachable yet: %v", err)
		}
		stop()
		q = queue.NewRedisQueue(r.Client, cfg.RedisKeyPrefix+"checkins", lg)
	} else {
		// an in-memory queue only sees this process; only the schedule runs
		lg.Println("queue backend is memory, running scheduled exports only")
		<-ctx.Done()
		lg.Println("worker stopped")
		return
	}

	lg.Println("worker started, waiting for messages...")
	if err := exp.Run(ctx, q); err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}
	lg.Println("worker stopped")
}
