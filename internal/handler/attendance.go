package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"staffattendance/internal/attendance"
	"staffattendance/internal/auth"
	"staffattendance/internal/calendar"
	"staffattendance/internal/cloudinary"
	"staffattendance/internal/queue"
	"staffattendance/internal/report"
)

const (
	// recentOnDashboard is how many check-ins the analytics view lists.
	recentOnDashboard = 5
	publishTimeout    = 2 * time.Second
)

// ---------- Photos ----------

// Upload accepts a JSON data URL or a multipart file and returns the hosted URL.
func (h *Handler) Upload(c *gin.Context) {
	if h.Photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}

	var (
		result *cloudinary.UploadResult
		err    error
	)
	if strings.Contains(c.ContentType(), "multipart/form-data") {
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
			return
		}
		defer file.Close()
		data, ferr := io.ReadAll(io.LimitReader(file, 10<<20))
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
			return
		}
		result, err = h.Photos.UploadBytes(c.Request.Context(), data, header.Filename)
	} else {
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		if berr := c.ShouldBindJSON(&body); berr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": `provide {"data": "<base64 data URL>"}`})
			return
		}
		result, err = h.Photos.UploadDataURL(c.Request.Context(), body.Data)
	}
	if err != nil {
		h.uploadFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":       result.SecureURL,
		"public_id": result.PublicID,
		"width":     result.Width,
		"height":    result.Height,
		"bytes":     result.Bytes,
	})
}

func (h *Handler) uploadFailed(c *gin.Context, err error) {
	if isInvalid(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.lg.Printf("cloudinary upload failed: %v", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
}

// ---------- Check-in ----------

type checkInRequest struct {
	Photo string `json:"photo"`
}

// CheckIn records the signed-in user's attendance at the organisation's
// current local date and time.
func (h *Handler) CheckIn(c *gin.Context) {
	var req checkInRequest
	// an empty body, chunked or not, is a check-in without a photo
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	u, _ := auth.CurrentUser(c)
	ctx := c.Request.Context()

	photo := strings.TrimSpace(req.Photo)
	if cloudinary.IsDataURL(photo) && h.Photos != nil {
		res, err := h.Photos.UploadDataURL(ctx, photo)
		if err != nil {
			h.uploadFailed(c, err)
			return
		}
		photo = res.SecureURL
	}

	rec, err := h.Ledger.RecordCheckIn(ctx, attendance.CheckIn{
		Name:  u.Name,
		Date:  h.Calendar.Today(),
		Time:  h.Calendar.Clock(),
		Photo: photo,
	})
	if err != nil {
		h.fail(c, "checkin", err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.CheckIn(rec.Status)
	}
	if h.Hub != nil {
		h.Hub.BroadcastCheckIn(rec, len(h.Ledger.ListForDate(ctx, rec.Date)))
	}
	h.publish(ctx, rec)
	c.JSON(http.StatusCreated, rec)
}

// publish hands the record to the worker. The record is already stored, so
// a slow or full queue only costs the event.
func (h *Handler) publish(ctx context.Context, rec attendance.Record) {
	if h.Queue == nil {
		return
	}
	msg, err := queue.CheckIn(rec)
	if err != nil {
		h.lg.Printf("queue encode failed: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := h.Queue.Publish(ctx, msg); err != nil {
		h.lg.Printf("queue publish failed for check-in %d: %v", rec.ID, err)
	}
}

// ---------- Queries ----------

func (h *Handler) ListAttendance(c *gin.Context) {
	c.JSON(http.StatusOK, h.Ledger.ListAll(c.Request.Context()))
}

func (h *Handler) ListToday(c *gin.Context) {
	c.JSON(http.StatusOK, h.Ledger.ListToday(c.Request.Context()))
}

// ListRecent serves a user's history; staff may only read their own.
func (h *Handler) ListRecent(c *gin.Context) {
	u, _ := auth.CurrentUser(c)
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		name = u.Name
	}
	if u.Role != auth.RoleAdmin && name != u.Name {
		c.JSON(http.StatusForbidden, gin.H{"error": "staff may only view their own attendance"})
		return
	}
	limit := attendance.DefaultRecentLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}
	recs, err := h.Ledger.ListRecentForUser(c.Request.Context(), name, limit)
	if err != nil {
		h.fail(c, "recent", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// Export streams the given day's records as an xlsx workbook.
func (h *Handler) Export(c *gin.Context) {
	date := c.DefaultQuery("date", h.Calendar.Today())
	if !calendar.ValidDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	recs, err := h.Ledger.RecordsForDate(c.Request.Context(), date)
	if err != nil {
		h.fail(c, "export", err)
		return
	}
	buf, err := report.Workbook(recs)
	if err != nil {
		h.fail(c, "export", err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+report.Filename(date))
	c.Data(http.StatusOK, report.ContentType, buf.Bytes())
}

// Analytics feeds the admin dashboard.
func (h *Handler) Analytics(c *gin.Context) {
	ctx := c.Request.Context()
	today := h.Calendar.Today()
	weekly, err := h.Ledger.WeeklyCounts(ctx, today)
	if err != nil {
		h.fail(c, "analytics", err)
		return
	}
	recent, err := h.Ledger.ListRecent(ctx, recentOnDashboard)
	if err != nil {
		h.fail(c, "analytics", err)
		return
	}
	roster := h.Staff.ListAll(ctx)
	if h.Metrics != nil {
		h.Metrics.StaffCount.Set(float64(len(roster)))
	}
	c.JSON(http.StatusOK, gin.H{
		"today":      h.Ledger.Summary(ctx, today),
		"weekly":     weekly,
		"recent":     recent,
		"staffCount": len(roster),
	})
}

// ---------- Live feed ----------

func (h *Handler) Live(c *gin.Context) {
	if h.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed disabled"})
		return
	}
	h.Hub.ServeWS(c.Writer, c.Request, h.Ledger.ListToday(c.Request.Context()))
}
