package handlers

import (
	"net/http"

	"delay-prediction-api/models"
	"delay-prediction-api/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type EventsHandler struct {
	orders store.OrderStore
	events store.EventStore
}

func NewEventsHandler(orders store.OrderStore, events store.EventStore) *EventsHandler {
	return &EventsHandler{orders: orders, events: events}
}

// GetOrderEvents lists an order's process events; ?unresolved=true keeps only open ones.
func (h *EventsHandler) GetOrderEvents(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := h.orders.GetOrder(ctx, orderID); err != nil {
		respondError(c, err, "order lookup failed")
		return
	}

	events, err := h.events.ListEventsForOrder(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("process events query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	out := make([]models.ProcessEvent, 0, len(events))
	onlyOpen := c.Query("unresolved") == "true"
	for _, ev := range events {
		if onlyOpen && !ev.Unresolved() {
			continue
		}
		out = append(out, ev)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
