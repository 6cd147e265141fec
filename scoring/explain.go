package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	NoEventsSummary = "No process events are recorded, so no delay is predicted."

	// placeholderExplanation is stored when an explanation cannot be encoded.
	placeholderExplanation = "{}"

	summaryProcesses = 3
)

type ExplanationDetail struct {
	EventCode        string      `json:"eventCode"`
	Process          string      `json:"process"`
	ScoredDelayHours float64     `json:"scoredDelayHours"`
	Multipliers      Multipliers `json:"multipliers"`
}

type Explanation struct {
	TotalDelayHours float64             `json:"totalDelayHours"`
	EventCount      int                 `json:"eventCount"`
	Details         []ExplanationDetail `json:"details"`
}

func BuildExplanation(scored []ScoredEvent, total float64) Explanation {
	details := make([]ExplanationDetail, 0, len(scored))
	for _, s := range scored {
		details = append(details, ExplanationDetail{
			EventCode:        s.EventCode,
			Process:          s.Process,
			ScoredDelayHours: s.ScoredDelayHours,
			Multipliers:      s.AppliedMultipliers,
		})
	}
	return Explanation{TotalDelayHours: total, EventCount: len(scored), Details: details}
}

// ExplanationJSON encodes the explanation record. If encoding fails it logs
// and returns the "{}" placeholder with ok set to false.
func ExplanationJSON(scored []ScoredEvent, total float64) (data []byte, ok bool) {
	data, err := json.Marshal(BuildExplanation(scored, total))
	if err != nil {
		log.Warn().Err(err).Int("event_count", len(scored)).Msg("explanation encoding failed, storing placeholder")
		return []byte(placeholderExplanation), false
	}
	return data, true
}

// Summary renders a one-paragraph description of the prediction.
func Summary(scored []ScoredEvent, total float64) string {
	if len(scored) == 0 {
		return NoEventsSummary
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d events are expected to cause about %.1f hours of delay. Risk level: %s.",
		len(scored), total, Classify(total).Label())

	totals := ProcessTotals(scored)
	if len(totals) > summaryProcesses {
		totals = totals[:summaryProcesses]
	}
	parts := make([]string, 0, len(totals))
	for _, p := range totals {
		parts = append(parts, fmt.Sprintf("%s(%.1fh)", p.Process, p.TotalDelayHours))
	}
	fmt.Fprintf(&b, " Main delayed processes: %s.", strings.Join(parts, ", "))

	if n := CountUnresolved(scored); n > 0 {
		fmt.Fprintf(&b, " %d unresolved events are adding to the delay.", n)
	}
	return b.String()
}
