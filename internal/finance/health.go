package finance

import "math"

// Trend direction of the month-over-month net result.
const (
	TrendDeclining = 0.0
	TrendFlat      = 0.5
	TrendImproving = 1.0
)

// HealthPolicy holds the business-policy coefficients of the health score.
// The weighting is configuration, not an algorithmic contract; the hard
// requirements are only that the score stays in [0, 100] and is monotonically
// non-decreasing in runway and in profit margin.
type HealthPolicy struct {
	// RunwayTargetMonths is the runway at which the runway factor saturates.
	RunwayTargetMonths float64

	RunwayWeight float64
	MarginWeight float64
	TrendWeight  float64
}

// DefaultHealthPolicy weights runway heaviest: for a small publisher, months
// of solvency matter more than the margin of any single season.
func DefaultHealthPolicy() HealthPolicy {
	return HealthPolicy{
		RunwayTargetMonths: 12,
		RunwayWeight:       0.5,
		MarginWeight:       0.3,
		TrendWeight:        0.2,
	}
}

// Score combines the runway factor, profit margin and trend direction into a
// 0-100 integer. runwayMonths < 0 counts as zero; profitable (infinite
// runway) callers pass math.Inf(1).
func (p HealthPolicy) Score(runwayMonths, profitMargin, trend float64) int {
	target := p.RunwayTargetMonths
	if target <= 0 {
		target = DefaultHealthPolicy().RunwayTargetMonths
	}

	runwayFactor := clamp01(runwayMonths / target)
	marginFactor := clamp01(profitMargin)
	trendFactor := clamp01(trend)

	totalWeight := p.RunwayWeight + p.MarginWeight + p.TrendWeight
	if totalWeight <= 0 {
		return 0
	}

	weighted := p.RunwayWeight*runwayFactor + p.MarginWeight*marginFactor + p.TrendWeight*trendFactor
	score := int(math.Round(100 * weighted / totalWeight))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
