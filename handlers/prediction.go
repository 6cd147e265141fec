package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"delay-prediction-api/services"
	"delay-prediction-api/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Predictor interface {
	PredictForOrder(ctx context.Context, orderID int64) (*services.PredictionResponse, error)
	GetOverview(ctx context.Context) (*services.OverviewResponse, error)
	GetTotalPredictedDelay(ctx context.Context) (float64, error)
}

type PredictionHandler struct {
	svc Predictor
}

func NewPredictionHandler(svc Predictor) *PredictionHandler {
	return &PredictionHandler{svc: svc}
}

func (h *PredictionHandler) GetOrderPrediction(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	resp, err := h.svc.PredictForOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err, "prediction failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *PredictionHandler) GetOverview(c *gin.Context) {
	resp, err := h.svc.GetOverview(c.Request.Context())
	if err != nil {
		respondError(c, err, "overview failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *PredictionHandler) GetTotal(c *gin.Context) {
	total, err := h.svc.GetTotalPredictedDelay(c.Request.Context())
	if err != nil {
		respondError(c, err, "total delay calculation failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"totalPredictedDelayHours": total}})
}

func parseOrderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error, msg string) {
	if errors.Is(err, store.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	log.Error().Err(err).Str("route", c.FullPath()).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
