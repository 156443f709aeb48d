package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"staffattendance/internal/staff"
)

// ---------- Staff roster ----------

func (h *Handler) ListStaff(c *gin.Context) {
	roster := h.Staff.ListAll(c.Request.Context())
	if h.Metrics != nil {
		h.Metrics.StaffCount.Set(float64(len(roster)))
	}
	c.JSON(http.StatusOK, roster)
}

type addStaffRequest struct {
	Name       string `json:"name" binding:"required"`
	Position   string `json:"position"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

func (h *Handler) AddStaff(c *gin.Context) {
	var req addStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	m, err := h.Staff.AddMember(c.Request.Context(), staff.NewMember{
		Name:       req.Name,
		Position:   req.Position,
		Role:       staff.Role(req.Role),
		Department: req.Department,
	})
	if err != nil {
		h.fail(c, "add staff", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) RemoveStaff(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	if err := h.Staff.RemoveMember(c.Request.Context(), id); err != nil {
		h.fail(c, "remove staff", err)
		return
	}
	c.Status(http.StatusNoContent)
}
