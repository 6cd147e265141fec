package handlers

import (
	"net/http"
	"time"

	"delay-prediction-api/models"
	"delay-prediction-api/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type SnapshotHandler struct {
	history store.SnapshotHistory
}

func NewSnapshotHandler(history store.SnapshotHistory) *SnapshotHandler {
	return &SnapshotHandler{history: history}
}

// GetSnapshots pages through an order's prediction history, newest first.
func (h *SnapshotHandler) GetSnapshots(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	p := ParsePagination(c)

	rows, err := h.history.ListSnapshots(c.Request.Context(), orderID, p.After, p.Limit+1)
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("snapshot history query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, Page(rows, p.Limit, snapshotKey))
}

func snapshotKey(s models.PredictionSnapshot) (time.Time, int64) {
	return s.CalculatedAt, s.ID
}
