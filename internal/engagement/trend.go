package engagement

// classifyTrend fits an ordinary-least-squares line through the accuracies
// of the learner's most recent sessions and buckets the slope. Fewer than
// MinTrendSessions sessions always classify as stable.
func classifyTrend(cfg Config, accuracies []float64) Trend {
	if len(accuracies) < cfg.MinTrendSessions {
		return TrendStable
	}
	slope := olsSlope(lastN(accuracies, cfg.TrendWindow))
	switch {
	case slope > cfg.TrendSlopeThreshold:
		return TrendImproving
	case slope < -cfg.TrendSlopeThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// olsSlope returns the least-squares slope of ys against the index sequence
// 0..n-1.
func olsSlope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
