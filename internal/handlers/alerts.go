package handlers

import (
	"errors"
	"net/http"

	"cryptodash/internal/models"
	"cryptodash/internal/portfolio"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type alertRequest struct {
	Symbol    string           `json:"symbol" binding:"required"`
	Type      models.AlertType `json:"type" binding:"required"`
	Threshold *decimal.Decimal `json:"threshold" binding:"required"`
}

func (h *Handler) ListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Alerts())
}

func (h *Handler) CreateAlert(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid alert body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol, type and numeric threshold are required"})
		return
	}
	a, err := h.store.AddAlert(c.Request.Context(), models.Alert{
		Symbol:    req.Symbol,
		Type:      req.Type,
		Threshold: *req.Threshold,
	})
	if err != nil {
		h.alertError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) DeleteAlert(c *gin.Context) {
	if err := h.store.RemoveAlert(c.Request.Context(), c.Param("id")); err != nil {
		h.alertError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ToggleAlert(c *gin.Context) {
	a, err := h.store.ToggleAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.alertError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) TriggerAlert(c *gin.Context) {
	a, err := h.store.TriggerAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.alertError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) alertError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, portfolio.ErrInvalidAlert):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, portfolio.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
	default:
		h.log.Errorf("alert update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
