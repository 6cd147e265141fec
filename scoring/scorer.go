package scoring

import (
	"sort"

	"delay-prediction-api/models"

	"github.com/rs/zerolog/log"
)

// Multipliers records the factors applied to an event's base delay, in the
// order they are applied. A factor that did not apply is 1.
type Multipliers struct {
	SeverityWeight   float64 `json:"severityWeight"`
	LineHoldFactor   float64 `json:"lineHoldFactor"`
	UnresolvedFactor float64 `json:"unresolvedFactor"`
	QtyFactor        float64 `json:"qtyFactor"`
}

type ScoredEvent struct {
	EventCode          string      `json:"eventCode"`
	Process            string      `json:"process"`
	ScoredDelayHours   float64     `json:"scoredDelayHours"`
	Severity           int         `json:"severity"`
	LineHold           bool        `json:"lineHold"`
	Unresolved         bool        `json:"unresolved"`
	QtyAffected        int         `json:"qtyAffected"`
	AppliedMultipliers Multipliers `json:"appliedMultipliers"`
}

// Score applies the event's rule. It returns false when no active rule
// covers the event code; such events contribute nothing.
func Score(ev models.ProcessEvent, rules RuleLookup) (ScoredEvent, bool) {
	rule, ok := rules[ev.EventCode]
	if !ok {
		log.Warn().
			Int64("event_id", ev.ID).
			Int64("order_id", ev.OrderID).
			Str("event_code", ev.EventCode).
			Msg("no active delay rule for event code, skipping event")
		return ScoredEvent{}, false
	}

	severity := ev.EffectiveSeverity()
	m := Multipliers{
		SeverityWeight:   rule.SeverityWeight(severity),
		LineHoldFactor:   1,
		UnresolvedFactor: 1,
		QtyFactor:        1,
	}
	if ev.LineHold {
		m.LineHoldFactor = rule.LineHoldMultiplier
	}
	if ev.Unresolved() {
		m.UnresolvedFactor = rule.UnresolvedMultiplier
	}
	if ev.QtyAffected >= rule.QtyThreshold {
		m.QtyFactor = rule.QtyMultiplier
	}

	hours := rule.BaseDelayHours * m.SeverityWeight * m.LineHoldFactor * m.UnresolvedFactor * m.QtyFactor

	return ScoredEvent{
		EventCode:          ev.EventCode,
		Process:            ev.Process,
		ScoredDelayHours:   hours,
		Severity:           severity,
		LineHold:           ev.LineHold,
		Unresolved:         ev.Unresolved(),
		QtyAffected:        ev.QtyAffected,
		AppliedMultipliers: m,
	}, true
}

// ScoreAll scores every event that has a rule and returns them ordered by
// scored hours, highest first. Ties keep their input order.
func ScoreAll(events []models.ProcessEvent, rules RuleLookup) []ScoredEvent {
	scored := make([]ScoredEvent, 0, len(events))
	for _, ev := range events {
		if s, ok := Score(ev, rules); ok {
			scored = append(scored, s)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].ScoredDelayHours > scored[j].ScoredDelayHours
	})
	return scored
}

// TopContributor returns the code of the single highest-scored event, or
// "none" when there are no events. The first of equal maxima wins.
func TopContributor(scored []ScoredEvent) string {
	if len(scored) == 0 {
		return "none"
	}
	top := scored[0]
	for _, s := range scored[1:] {
		if s.ScoredDelayHours > top.ScoredDelayHours {
			top = s
		}
	}
	return top.EventCode
}

// CountUnresolved returns how many scored events are still open.
func CountUnresolved(scored []ScoredEvent) int {
	n := 0
	for _, s := range scored {
		if s.Unresolved {
			n++
		}
	}
	return n
}
