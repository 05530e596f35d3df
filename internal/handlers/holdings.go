package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"cryptodash/internal/models"
	"cryptodash/internal/portfolio"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxImportBytes = 1 << 20

type holdingRequest struct {
	Symbol string           `json:"symbol" binding:"required"`
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

type amountRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

func (h *Handler) ListHoldings(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Holdings())
}

func (h *Handler) AddHolding(c *gin.Context) {
	var req holdingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid holding body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol and numeric amount are required"})
		return
	}
	saved, err := h.store.AddHolding(c.Request.Context(), models.Holding{Symbol: req.Symbol, Amount: *req.Amount})
	if err != nil {
		h.holdingError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) UpdateHolding(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid amount body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "numeric amount is required"})
		return
	}
	if err := h.store.UpdateHolding(c.Request.Context(), c.Param("symbol"), *req.Amount); err != nil {
		h.holdingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) RemoveHolding(c *gin.Context) {
	if err := h.store.RemoveHolding(c.Request.Context(), c.Param("symbol")); err != nil {
		h.holdingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ReplaceHoldings swaps the whole collection for the posted list. Invalid
// rows are skipped rather than failing the request.
func (h *Handler) ReplaceHoldings(c *gin.Context) {
	var list []models.Holding
	if err := c.ShouldBindJSON(&list); err != nil {
		h.log.Warnf("invalid holdings list: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a list of {symbol, amount}"})
		return
	}
	skipped := h.store.ReplaceAllHoldings(c.Request.Context(), list)
	c.JSON(http.StatusOK, gin.H{"holdings": h.store.Holdings(), "skipped": skipped})
}

func (h *Handler) ClearHoldings(c *gin.Context) {
	h.store.ClearAllHoldings(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ExportHoldings(c *gin.Context) {
	var buf bytes.Buffer
	if err := portfolio.WriteCSV(&buf, h.store.Holdings()); err != nil {
		h.log.Errorf("export holdings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="portfolio.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ImportHoldings reads a Symbol,Amount CSV from the request body (or a
// multipart "file" field). The caller must pick mode=replace or mode=merge.
func (h *Handler) ImportHoldings(c *gin.Context) {
	mode := c.Query("mode")
	if mode != "replace" && mode != "merge" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be replace or merge"})
		return
	}

	body, err := h.importBody(c)
	if err != nil {
		h.log.Warnf("read import: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read CSV"})
		return
	}
	defer body.Close()

	rows, rejected, err := portfolio.ReadCSV(http.MaxBytesReader(c.Writer, body, maxImportBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.log.Warnf("import body over %d bytes", maxImportBytes)
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "CSV file too large"})
		return
	}
	if err != nil {
		h.log.Warnf("parse import: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read CSV"})
		return
	}
	if rejected == nil {
		rejected = []portfolio.RejectedRow{}
	}

	var skipped int
	if mode == "replace" {
		skipped = h.store.ReplaceAllHoldings(c.Request.Context(), rows)
	} else {
		skipped = h.store.MergeHoldings(c.Request.Context(), rows)
	}
	h.log.Infof("imported %d holdings (%s), %d rejected", len(rows)-skipped, mode, len(rejected))
	c.JSON(http.StatusOK, gin.H{
		"mode":     mode,
		"imported": len(rows) - skipped,
		"rejected": rejected,
		"holdings": h.store.Holdings(),
	})
}

func (h *Handler) importBody(c *gin.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.Request.Body, nil
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}
	return fh.Open()
}

func (h *Handler) holdingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, portfolio.ErrInvalidHolding):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, portfolio.ErrHoldingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "holding not found"})
	default:
		h.log.Errorf("holding update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
