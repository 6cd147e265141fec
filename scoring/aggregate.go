package scoring

import (
	"math"
	"sort"
)

// DecayFactor discounts each successively smaller process total.
const DecayFactor = 0.3

type ProcessTotal struct {
	Process         string  `json:"process"`
	TotalDelayHours float64 `json:"totalDelayHours"`
	EventCount      int     `json:"eventCount"`
}

// ProcessTotals groups scored events by process, highest total first.
// Totals are unrounded; equal totals are ordered by process name.
func ProcessTotals(scored []ScoredEvent) []ProcessTotal {
	hours := make(map[string][]float64)
	for _, s := range scored {
		hours[s.Process] = append(hours[s.Process], s.ScoredDelayHours)
	}

	totals := make([]ProcessTotal, 0, len(hours))
	for process, values := range hours {
		// fixed summation order so float totals do not depend on event order
		sort.Float64s(values)
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		totals = append(totals, ProcessTotal{Process: process, TotalDelayHours: sum, EventCount: len(values)})
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].TotalDelayHours != totals[j].TotalDelayHours {
			return totals[i].TotalDelayHours > totals[j].TotalDelayHours
		}
		return totals[i].Process < totals[j].Process
	})
	return totals
}

// Aggregate combines the ranked process totals with geometric decay and
// rounds the result to two decimals.
func Aggregate(scored []ScoredEvent) float64 {
	total := 0.0
	for i, p := range ProcessTotals(scored) {
		total += p.TotalDelayHours * math.Pow(DecayFactor, float64(i))
	}
	return Round2(total)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
