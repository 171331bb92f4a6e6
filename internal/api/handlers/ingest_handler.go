package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stn-analytics/stn-dashboard/internal/config"
	"github.com/stn-analytics/stn-dashboard/internal/report"
	"github.com/stn-analytics/stn-dashboard/internal/service"
)

type IngestHandler struct {
	service *service.IngestService
}

func NewIngestHandler(service *service.IngestService) *IngestHandler {
	return &IngestHandler{service: service}
}

// TriggerSource runs one ingestion source on demand.
func (h *IngestHandler) TriggerSource(c *gin.Context) {
	source := c.Param("source")

	result, err := h.service.Run(c.Request.Context(), source)
	if err != nil {
		h.writeRunError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// TriggerAll refreshes every source. Partial failures still return the
// results of the sources that succeeded.
func (h *IngestHandler) TriggerAll(c *gin.Context) {
	results, err := h.service.RunAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "results": results})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *IngestHandler) writeRunError(c *gin.Context, err error) {
	var structural *report.StructuralFormatError
	var creds *config.MissingCredentialsError

	switch {
	case errors.As(err, &structural):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &creds):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
