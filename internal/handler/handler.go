package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"staffattendance/internal/apperr"
	"staffattendance/internal/attendance"
	"staffattendance/internal/auth"
	"staffattendance/internal/calendar"
	"staffattendance/internal/cloudinary"
	"staffattendance/internal/live"
	"staffattendance/internal/metrics"
	"staffattendance/internal/queue"
	"staffattendance/internal/staff"
	"staffattendance/internal/store"
)

// Deps are the collaborators the HTTP layer drives. Photos, Queue, Hub and
// Metrics are optional.
type Deps struct {
	Store    store.Store
	Ledger   *attendance.Ledger
	Staff    *staff.Directory
	Calendar calendar.Calendar
	Accounts *auth.Accounts
	Signer   *auth.Signer
	Photos   *cloudinary.Client
	Queue    queue.Queue
	Hub      *live.Hub
	Metrics  *metrics.Metrics
	Logger   *log.Logger
}

type Handler struct {
	Deps
	lg *log.Logger
}

func New(d Deps) *Handler {
	lg := d.Logger
	if lg == nil {
		lg = log.Default()
	}
	return &Handler{Deps: d, lg: lg}
}

// fail maps domain errors onto status codes.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrStorageUnavailable):
		h.lg.Printf("%s: %v", op, err)
		if h.Metrics != nil {
			h.Metrics.StoreFailure(op)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		h.lg.Printf("%s: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	queueBackend := "none"
	if h.Queue != nil {
		queueBackend = h.Queue.Backend()
	}
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		h.lg.Printf("health check: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": false, "queue": queueBackend})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": true, "queue": queueBackend})
}

func isInvalid(err error) bool {
	return errors.Is(err, apperr.ErrInvalidInput)
}
