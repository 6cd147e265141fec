package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"delay-prediction-api/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// liveTypes maps a pub/sub channel to the message type sent to clients.
var liveTypes = map[string]string{
	services.SnapshotChannel: "prediction_snapshot",
	services.EventChannel:    "process_event",
}

type liveMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// orderRef matches both payload shapes: snapshot notices use orderId,
// stored events use order_id.
type orderRef struct {
	OrderID      int64 `json:"orderId"`
	EventOrderID int64 `json:"order_id"`
}

// toLiveMessage wraps a pub/sub payload for the client. It returns false for
// unknown channels and for payloads about other orders when orderID is set.
func toLiveMessage(channel, payload string, orderID int64) (liveMessage, bool) {
	typ, ok := liveTypes[channel]
	if !ok {
		return liveMessage{}, false
	}
	if orderID != 0 {
		var ref orderRef
		if err := json.Unmarshal([]byte(payload), &ref); err != nil {
			return liveMessage{}, false
		}
		if ref.OrderID != orderID && ref.EventOrderID != orderID {
			return liveMessage{}, false
		}
	}
	return liveMessage{Type: typ, Data: json.RawMessage(payload)}, true
}

// LiveSnapshots streams recorded predictions to a websocket client.
// ?orderId= narrows the stream to one order and ?events=true adds the
// ingested process events.
func LiveSnapshots(cache *services.CacheService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cache.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live updates unavailable"})
			return
		}

		var orderID int64
		if raw := c.Query("orderId"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orderId"})
				return
			}
			orderID = id
		}
		channels := []string{services.SnapshotChannel}
		if c.Query("events") == "true" {
			channels = append(channels, services.EventChannel)
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// client disconnect ends the relay
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		pubsub := cache.Subscribe(ctx, channels...)
		defer pubsub.Close()

		log.Debug().Strs("channels", channels).Int64("order_id", orderID).Msg("live stream opened")

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				out, keep := toLiveMessage(msg.Channel, msg.Payload, orderID)
				if !keep {
					continue
				}
				if err := conn.WriteJSON(out); err != nil {
					log.Warn().Err(err).Msg("ws write error")
					return
				}
			}
		}
	}
}
