package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"staffattendance/internal/attendance"
	"staffattendance/internal/auth"
	"staffattendance/internal/calendar"
	"staffattendance/internal/cloudinary"
	"staffattendance/internal/config"
	"staffattendance/internal/handler"
	"staffattendance/internal/live"
	"staffattendance/internal/metrics"
	"staffattendance/internal/queue"
	"staffattendance/internal/staff"
	"staffattendance/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	lg := cfg.Logger
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()
	lg.Printf("store backend: %s", cfg.StoreBackend)

	cal, err := calendar.New(cfg.Timezone, cfg.OnTimeCutoff)
	if err != nil {
		return err
	}

	roster := staff.NewDirectory(st, lg)
	if err := roster.EnsureInitialized(ctx); err != nil {
		// reads degrade to the admin entry; keep serving
		lg.Printf("warning: staff roster not initialised: %v", err)
	}
	ledger := attendance.NewLedger(st, cal, lg)

	accounts, err := auth.NewAccounts(cfg.AdminPassword, cfg.StaffPassword)
	if err != nil {
		return err
	}
	signer := auth.NewSigner(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)

	q, closeQueue := openQueue(cfg, lg)
	defer closeQueue()

	photos := cloudinary.New(cfg.CloudinaryName, cfg.CloudinaryKey, cfg.CloudinarySecret, cfg.CloudinaryFolder)
	if photos != nil {
		lg.Println("Cloudinary configured:", cfg.CloudinaryName)
	} else {
		lg.Println("Cloudinary not configured, photos are stored inline")
	}

	hub := live.NewHub(lg)
	go hub.Run(ctx)

	h := handler.New(handler.Deps{
		Store:    st,
		Ledger:   ledger,
		Staff:    roster,
		Calendar: cal,
		Accounts: accounts,
		Signer:   signer,
		Photos:   photos,
		Queue:    q,
		Hub:      hub,
		Metrics:  metrics.New(prometheus.DefaultRegisterer),
		Logger:   lg,
	})
	r := h.Router(handler.RouterOptions{
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	lg.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Printf("Server forced shutdown: %v", err)
	}
	lg.Println("Server exited")
	return nil
}

// openQueue returns nil unless Redis carries the events: an in-process
// queue has no consumer here and the worker cannot reach it.
func openQueue(cfg config.App, lg *log.Logger) (queue.Queue, func()) {
	if cfg.QueueBackend != "redis" {
		lg.Println("queue backend is memory, check-in events are not published")
		return nil, func() {}
	}
	r := store.NewRedis(cfg.RedisAddr, cfg.RedisKeyPrefix)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		lg.Printf("warning: redis queue not reachable yet: %v", err)
	}
	return queue.NewRedisQueue(r.Client, cfg.RedisKeyPrefix+"checkins", lg), func() { _ = r.Close() }
}
