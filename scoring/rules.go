package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"delay-prediction-api/models"

	"github.com/rs/zerolog/log"
)

var ErrDuplicateRule = errors.New("duplicate active delay rule")

// CompiledRule is a DelayRule with its severity weight table parsed once.
type CompiledRule struct {
	models.DelayRule
	weights   map[string]float64
	malformed bool
}

// SeverityWeight returns the weight for severity, or 1.0 when the table has no entry.
func (r *CompiledRule) SeverityWeight(severity int) float64 {
	if w, ok := r.weights[strconv.Itoa(severity)]; ok {
		return w
	}
	return 1.0
}

// Malformed reports whether the stored weight table was rejected.
func (r *CompiledRule) Malformed() bool {
	return r.malformed
}

// RuleLookup maps an event code to its active rule.
type RuleLookup map[string]*CompiledRule

// Malformed returns the event codes whose weight tables were rejected.
func (l RuleLookup) Malformed() []string {
	var codes []string
	for code, r := range l {
		if r.malformed {
			codes = append(codes, code)
		}
	}
	return codes
}

// CompileRules builds the lookup for one pipeline run. Inactive rules are
// ignored; two active rules for one event code are a data error.
func CompileRules(rules []models.DelayRule) (RuleLookup, error) {
	lookup := make(RuleLookup, len(rules))
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if _, dup := lookup[rule.EventCode]; dup {
			return nil, fmt.Errorf("%w: event code %q", ErrDuplicateRule, rule.EventCode)
		}

		compiled := &CompiledRule{DelayRule: rule}
		weights, err := ParseSeverityWeights(rule.SeverityWeights)
		if err != nil {
			compiled.malformed = true
			log.Warn().Err(err).
				Str("event_code", rule.EventCode).
				Int64("rule_id", rule.ID).
				Msg("malformed severity weights, using 1.0 for every severity")
		} else {
			compiled.weights = weights
		}
		lookup[rule.EventCode] = compiled
	}
	return lookup, nil
}

// ParseSeverityWeights decodes a severity weight table. Blank input yields an
// empty table. Weights must be finite and non-negative.
func ParseSeverityWeights(raw string) (map[string]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var weights map[string]float64
	if err := json.Unmarshal([]byte(raw), &weights); err != nil {
		return nil, fmt.Errorf("decode severity weights: %w", err)
	}
	for key, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("severity %s: invalid weight %v", key, w)
		}
	}
	return weights, nil
}
