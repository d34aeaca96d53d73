package billing

import "math"

// Billing rounding policies.
//
// Two granularities exist on purpose and must not be unified:
//
//   - MinutesBilled rounds duration up to the nearest 0.01 minute. This is
//     the persisted billing figure written to the calls table and the one
//     the monthly usage metrics aggregate.
//   - FineMinutes rounds duration up to the nearest 0.1 minute (a 6-second
//     increment). This is the display-side figure used by the per-call cost
//     breakdown, matching how the vendor meters sub-minute usage.
//
// Both always round up, never down, so billed minutes can never undercount
// wall-clock time. All helpers clamp negative input to zero.

// MinutesBilled returns duration rounded up to the nearest 0.01 minute.
// Integer arithmetic avoids float-ceiling artifacts near exact boundaries.
func MinutesBilled(durationSeconds int) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	centiMinutes := (durationSeconds*100 + 59) / 60
	return float64(centiMinutes) / 100
}

// FineMinutes returns duration rounded up to the nearest 6-second increment,
// expressed in minutes.
func FineMinutes(durationSeconds int) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	deciMinutes := (durationSeconds + 5) / 6
	return float64(deciMinutes) / 10
}

// WholeMinutes returns duration rounded up to whole minutes.
func WholeMinutes(durationSeconds int) int {
	if durationSeconds <= 0 {
		return 0
	}
	return (durationSeconds + 59) / 60
}

// RoundCost clamps a monetary amount to [0, +inf) at 4 fractional digits.
func RoundCost(cost float64) float64 {
	if cost <= 0 || math.IsNaN(cost) || math.IsInf(cost, 0) {
		return 0
	}
	return math.Round(cost*10000) / 10000
}
