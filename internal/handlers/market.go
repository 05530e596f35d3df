package handlers

import (
	"net/http"
	"strings"

	"cryptodash/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetPrices(c *gin.Context) {
	var symbols []string
	for _, s := range strings.Split(c.Query("symbols"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbols query parameter is required"})
		return
	}
	c.JSON(http.StatusOK, h.prices.FetchPrices(c.Request.Context(), symbols))
}

func (h *Handler) GetMetrics(c *gin.Context) {
	m := h.prices.FetchOnChainMetrics(c.Request.Context(), c.Param("symbol"))
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no on-chain metrics for symbol"})
		return
	}
	h.store.SetMetrics(m.Symbol, *m)
	c.JSON(http.StatusOK, m)
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Summary())
}

// GetTimeframeChange reports the aggregate change over one of 24h, 7d or
// 30d (default 24h).
func (h *Handler) GetTimeframeChange(c *gin.Context) {
	tf := models.Timeframe(c.DefaultQuery("timeframe", string(models.Timeframe24h)))
	if !tf.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeframe must be 24h, 7d or 30d"})
		return
	}
	change := h.store.TimeframeChanges(tf)
	c.JSON(http.StatusOK, gin.H{
		"timeframe":     tf,
		"changeAmount":  change.ChangeAmount,
		"changePercent": change.ChangePercent,
	})
}

// Refresh runs the shared refresh path. A request arriving while one is
// already running is acknowledged without starting another.
func (h *Handler) Refresh(c *gin.Context) {
	if h.refresher.InFlight() {
		c.JSON(http.StatusAccepted, gin.H{"status": "in_flight"})
		return
	}
	c.JSON(http.StatusOK, h.refresher.Refresh(c.Request.Context()))
}

type mappingRequest struct {
	Symbols []string `json:"symbols"`
}

// UpdateMapping resolves the posted symbols, else the held symbols, else
// the built-in list.
func (h *Handler) UpdateMapping(c *gin.Context) {
	var req mappingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.log.Warnf("invalid mapping body: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "symbols must be a list of strings"})
			return
		}
	}
	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = h.store.Symbols()
	}

	res, err := h.mapping.Update(c.Request.Context(), symbols)
	if err != nil {
		h.log.Errorf("symbol mapping update: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "mapping update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"mapping":   res.Mapping,
		"details":   res.Details,
		"failed":    res.Failed,
		"updatedAt": res.UpdatedAt,
	})
}

func (h *Handler) GetMapping(c *gin.Context) {
	res := h.mapping.Last()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"mapping":   res.Mapping,
		"details":   res.Details,
		"failed":    res.Failed,
		"updatedAt": res.UpdatedAt,
	})
}

// Stream upgrades to a websocket that receives the current summary and then
// every refreshed one.
func (h *Handler) Stream(c *gin.Context) {
	h.hub.Serve(c.Writer, c.Request, h.store.Summary())
}
