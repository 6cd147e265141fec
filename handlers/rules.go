package handlers

import (
	"context"
	"net/http"
	"time"

	"delay-prediction-api/models"
	"delay-prediction-api/services"
	"delay-prediction-api/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	rulesCacheKey = "delayrisk:rules:active"
	rulesCacheTTL = 60 * time.Second
)

type RulesHandler struct {
	rules store.RuleStore
	cache *services.CacheService
}

func NewRulesHandler(rules store.RuleStore, cache *services.CacheService) *RulesHandler {
	return &RulesHandler{rules: rules, cache: cache}
}

// GetActiveRules lists the active delay rules. The listing is cached; scoring
// always reads rules from the store.
func (h *RulesHandler) GetActiveRules(c *gin.Context) {
	rules, err := services.Cached(c.Request.Context(), h.cache, rulesCacheKey, rulesCacheTTL,
		func(ctx context.Context) ([]models.DelayRule, error) {
			rules, err := h.rules.ListActiveRules(ctx)
			if rules == nil {
				rules = []models.DelayRule{}
			}
			return rules, err
		})
	if err != nil {
		log.Error().Err(err).Msg("delay rules query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rules})
}
