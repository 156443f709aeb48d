package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"staffattendance/internal/auth"
)

// ---------- Sessions ----------

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	u, err := h.Accounts.Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	h.issue(c, u)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
		return
	}
	claims, err := h.Signer.Parse(req.RefreshToken, auth.TypeRefresh)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, auth.ErrWrongType) {
			msg = "not a refresh token"
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}
	u, ok := h.Accounts.Lookup(claims.Subject)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
		return
	}
	h.issue(c, u)
}

func (h *Handler) issue(c *gin.Context, u auth.User) {
	tokens, err := h.Signer.Issue(u)
	if err != nil {
		h.lg.Printf("token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "tokens": tokens})
}

func (h *Handler) Me(c *gin.Context) {
	u, _ := auth.CurrentUser(c)
	c.JSON(http.StatusOK, u)
}
