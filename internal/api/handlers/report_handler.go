package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stn-analytics/stn-dashboard/internal/domain"
	"github.com/stn-analytics/stn-dashboard/internal/service"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// GetSalesDynamics returns per-month revenue sums, optionally filtered
// by year and record type.
func (h *ReportHandler) GetSalesDynamics(c *gin.Context) {
	filter := &domain.SalesFilter{}

	if year := strings.TrimSpace(c.Query("year")); year != "" {
		parsed, err := strconv.Atoi(year)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
			return
		}
		filter.Year = parsed
	}
	filter.Type = strings.TrimSpace(c.Query("type"))

	points, err := h.service.SalesDynamics(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch sales dynamics", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": points})
}

// GetStaleStock returns slow movers for a snapshot date. Without a date
// parameter the latest snapshot is used.
func (h *ReportHandler) GetStaleStock(c *gin.Context) {
	reportDate := strings.TrimSpace(c.Query("report_date"))

	items, err := h.service.StaleStock(c.Request.Context(), reportDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stale stock", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ReportHandler) GetStockDates(c *gin.Context) {
	dates, err := h.service.StockReportDates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stock dates", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

func (h *ReportHandler) GetProductionSummary(c *gin.Context) {
	rows, err := h.service.ProductionSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch production summary", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (h *ReportHandler) GetPurchaseTotals(c *gin.Context) {
	totals, err := h.service.PurchaseTotals(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch purchase totals", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

func (h *ReportHandler) GetRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.service.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch runs", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
