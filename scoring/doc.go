// Package scoring turns process events into a delay estimate for a
// manufacturing order.
//
// Each event is matched to an active delay rule by event code and scored as
//
//	base × severityWeight × lineHoldFactor × unresolvedFactor × qtyFactor
//
// Scored events are summed per process, the process totals are ranked and
// combined with a geometric 0.3 decay (parallel disruptions overlap), and the
// result is bucketed into a risk tier. Everything here is pure: rule lookups
// are passed in and rebuilt by the caller on every pipeline run.
package scoring
