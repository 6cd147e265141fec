package handlers

import (
	"net/http"

	"delay-prediction-api/config"
	"delay-prediction-api/middleware"
	"delay-prediction-api/services"
	"delay-prediction-api/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Store       store.Store
	Predictions Predictor
	Dashboard   DashboardReader
	Cache       *services.CacheService
	CORS        config.CORSConfig
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(), middleware.SetupCORS(deps.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "UP",
			"message": "Delay Prediction API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	predictions := NewPredictionHandler(deps.Predictions)
	snapshots := NewSnapshotHandler(deps.Store)
	rules := NewRulesHandler(deps.Store, deps.Cache)
	events := NewEventsHandler(deps.Store, deps.Store)
	dashboard := NewDashboardHandler(deps.Dashboard)

	v1 := router.Group("/api/v1")
	{
		dp := v1.Group("/delay-prediction")
		dp.GET("/orders/:orderId", predictions.GetOrderPrediction)
		dp.GET("/orders/:orderId/snapshots", snapshots.GetSnapshots)
		dp.GET("/overview", predictions.GetOverview)
		dp.GET("/total", predictions.GetTotal)

		v1.GET("/delay-rules", rules.GetActiveRules)
		v1.GET("/orders/:orderId/events", events.GetOrderEvents)
		v1.GET("/dashboard/summary", dashboard.GetSummary)
	}

	router.GET("/ws/snapshots", LiveSnapshots(deps.Cache))

	return router
}
