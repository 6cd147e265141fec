package handlers

import (
	"context"
	"net/http"

	"delay-prediction-api/services"

	"github.com/gin-gonic/gin"
)

type DashboardReader interface {
	Summary(ctx context.Context) services.DashboardSummary
}

type DashboardHandler struct {
	svc DashboardReader
}

func NewDashboardHandler(svc DashboardReader) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// GetSummary always answers 200; the summary says whether it is a fallback.
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.svc.Summary(c.Request.Context())})
}
