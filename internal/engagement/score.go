package engagement

import "math"

// NeutralScore is the fallback for components that lack enough data.
const NeutralScore = 0.5

// Trend classifies the direction of a learner's recent accuracy.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Score is the full engagement picture for one session. Every component and
// the overall value are fractions in [0, 1].
type Score struct {
	Overall       float64 `json:"overall"`
	Participation float64 `json:"participation"`
	Accuracy      float64 `json:"accuracy"`
	TimeOnTask    float64 `json:"time_on_task"`
	Consistency   float64 `json:"consistency"`
	Trend         Trend   `json:"trend"`
	Alerts        []Alert `json:"alerts"`
}

// CalculateScore computes the engagement score for the session, creating it
// on first access. It always returns a fully populated Score; with no data
// every component falls back to its neutral default.
func (e *Engine) CalculateScore(sessionID, userID string) Score {
	ev := e.evaluate(sessionID, userID)
	return e.scoreOf(ev)
}

func (e *Engine) scoreOf(ev evaluation) Score {
	cfg := e.cfg
	p := participationScore(cfg, ev.metrics)
	a := ev.metrics.Accuracy()
	t := timeOnTaskScore(ev.metrics)
	c := consistencyScore(cfg, ev.accuracies)
	overall := clamp(cfg.ParticipationWeight*p+cfg.AccuracyWeight*a+cfg.TimeOnTaskWeight*t+cfg.ConsistencyWeight*c, 0, 1)

	return Score{
		Overall:       overall,
		Participation: p,
		Accuracy:      a,
		TimeOnTask:    t,
		Consistency:   c,
		Trend:         classifyTrend(cfg, ev.accuracies),
		Alerts:        buildAlerts(cfg, ev.metrics, overall, a, breakDue(cfg, ev.metrics, overall, ev.now)),
	}
}

func (e *Engine) overallOf(ev evaluation) float64 {
	cfg := e.cfg
	return clamp(
		cfg.ParticipationWeight*participationScore(cfg, ev.metrics)+
			cfg.AccuracyWeight*ev.metrics.Accuracy()+
			cfg.TimeOnTaskWeight*timeOnTaskScore(ev.metrics)+
			cfg.ConsistencyWeight*consistencyScore(cfg, ev.accuracies), 0, 1)
}

// participationScore compares the interaction count against the expected
// rate. Sessions younger than half a minute use a denominator of 1 so the
// ratio stays defined.
func participationScore(cfg Config, m Metrics) float64 {
	minutes := math.Round(m.TotalTime.Minutes())
	expected := minutes * cfg.ExpectedInteractionsPerMinute
	if minutes <= 0 || expected <= 0 {
		expected = 1
	}
	return clamp(float64(m.InteractionCount)/expected, 0, 1)
}

func timeOnTaskScore(m Metrics) float64 {
	if m.TotalTime <= 0 {
		return 0
	}
	return clamp(float64(m.FocusTime)/float64(m.TotalTime), 0, 1)
}

// consistencyScore is an inverse-variance measure over the accuracies of the
// learner's recent sessions: steadier performance scores higher.
func consistencyScore(cfg Config, accuracies []float64) float64 {
	if len(accuracies) < 2 {
		return NeutralScore
	}
	recent := lastN(accuracies, cfg.ConsistencyWindow)
	v := populationVariance(recent)
	if v > 1 {
		v = 1
	}
	return 1 - v
}

func sessionAccuracy(correct, total int) float64 {
	if total <= 0 {
		return NeutralScore
	}
	return float64(correct) / float64(total)
}

func populationVariance(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return sq / n
}

func lastN(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
