// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stn-analytics/stn-dashboard/internal/api/handlers"
	"github.com/stn-analytics/stn-dashboard/internal/api/middleware"
	"github.com/stn-analytics/stn-dashboard/internal/service"
)

type Services struct {
	ReportService *service.ReportService
	IngestService *service.IngestService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.ReportService != nil {
			reportHandler := handlers.NewReportHandler(services.ReportService)
			reportGroup := apiGroup.Group("/reports")
			{
				reportGroup.GET("/sales/dynamics", reportHandler.GetSalesDynamics)
				reportGroup.GET("/stock/stale", reportHandler.GetStaleStock)
				reportGroup.GET("/stock/dates", reportHandler.GetStockDates)
				reportGroup.GET("/production/summary", reportHandler.GetProductionSummary)
				reportGroup.GET("/purchases/totals", reportHandler.GetPurchaseTotals)
				reportGroup.GET("/runs", reportHandler.GetRuns)
			}
		}

		if services.IngestService != nil {
			ingestHandler := handlers.NewIngestHandler(services.IngestService)
			ingestGroup := apiGroup.Group("/ingest")
			{
				ingestGroup.POST("/all", ingestHandler.TriggerAll)
				ingestGroup.POST("/:source", ingestHandler.TriggerSource)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
