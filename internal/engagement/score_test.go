package engagement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipationScore(t *testing.T) {
	cfg := DefaultConfig()

	// 10 interactions over 10 minutes against an expected 2/minute.
	m := Metrics{InteractionCount: 10, TotalTime: 10 * time.Minute}
	assert.InDelta(t, 0.5, participationScore(cfg, m), 1e-9)

	// Over-delivering clamps at 1.
	m = Metrics{InteractionCount: 100, TotalTime: 10 * time.Minute}
	assert.Equal(t, 1.0, participationScore(cfg, m))

	// Under half a minute the denominator falls back to 1.
	m = Metrics{InteractionCount: 3, TotalTime: 10 * time.Second}
	assert.Equal(t, 1.0, participationScore(cfg, m))

	m = Metrics{InteractionCount: 0, TotalTime: 0}
	assert.Equal(t, 0.0, participationScore(cfg, m))
}

func TestTimeOnTaskScore(t *testing.T) {
	assert.Equal(t, 0.0, timeOnTaskScore(Metrics{}))

	m := Metrics{FocusTime: 5 * time.Minute, TotalTime: 10 * time.Minute}
	assert.InDelta(t, 0.5, timeOnTaskScore(m), 1e-9)

	m = Metrics{FocusTime: 10 * time.Minute, TotalTime: 10 * time.Minute}
	assert.Equal(t, 1.0, timeOnTaskScore(m))
}

func TestSessionAccuracy(t *testing.T) {
	assert.Equal(t, NeutralScore, sessionAccuracy(0, 0))
	assert.Equal(t, 0.25, sessionAccuracy(1, 4))
	assert.Equal(t, 1.0, sessionAccuracy(3, 3))
}

func TestConsistencyScore(t *testing.T) {
	cfg := DefaultConfig()

	// Fewer than two sessions is neutral.
	assert.Equal(t, NeutralScore, consistencyScore(cfg, nil))
	assert.Equal(t, NeutralScore, consistencyScore(cfg, []float64{0.9}))

	// Identical accuracies are perfectly consistent.
	assert.Equal(t, 1.0, consistencyScore(cfg, []float64{0.8, 0.8, 0.8}))

	// Population variance of {1, 0} is 0.25.
	assert.InDelta(t, 0.75, consistencyScore(cfg, []float64{1, 0}), 1e-9)

	// Only the window tail counts: wild old sessions are ignored.
	accs := []float64{0, 1, 0, 0.7, 0.7, 0.7, 0.7, 0.7}
	assert.Equal(t, 1.0, consistencyScore(cfg, accs))
}

func TestPopulationVariance(t *testing.T) {
	assert.Equal(t, 0.0, populationVariance(nil))
	assert.Equal(t, 0.0, populationVariance([]float64{0.4}))
	assert.InDelta(t, 0.25, populationVariance([]float64{0, 1}), 1e-9)
	assert.InDelta(t, 2.0/3.0, populationVariance([]float64{1, 2, 3}), 1e-9)
}

func TestCalculateScoreFreshSession(t *testing.T) {
	e, _ := newTestEngine()

	score := e.CalculateScore("s1", "u1")

	assert.Equal(t, 0.0, score.Participation)
	assert.Equal(t, NeutralScore, score.Accuracy)
	assert.Equal(t, 0.0, score.TimeOnTask)
	assert.Equal(t, NeutralScore, score.Consistency)
	assert.InDelta(t, 0.225, score.Overall, 1e-9)
	assert.Equal(t, TrendStable, score.Trend)

	// A fresh session scores low enough to warn about attention.
	require.NotEmpty(t, score.Alerts)
	assert.Equal(t, AlertLowAttention, score.Alerts[0].Type)
}

func TestCalculateScoreWeights(t *testing.T) {
	e, clk := newTestEngine()

	// One active, accurate learner: interactions every 30s for 10 minutes,
	// half of them correct quiz submissions.
	for i := 0; i < 20; i++ {
		if i > 0 {
			clk.Advance(30 * time.Second)
		}
		if i%2 == 0 {
			e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": true})
		} else {
			e.TrackInteraction("s1", "u1", InteractionClick, nil)
		}
	}

	score := e.CalculateScore("s1", "u1")

	assert.Equal(t, 1.0, score.Participation)
	assert.Equal(t, 1.0, score.Accuracy)
	assert.Equal(t, 1.0, score.TimeOnTask)
	assert.Equal(t, NeutralScore, score.Consistency)

	cfg := e.cfg
	want := cfg.ParticipationWeight + cfg.AccuracyWeight + cfg.TimeOnTaskWeight + cfg.ConsistencyWeight*NeutralScore
	assert.InDelta(t, want, score.Overall, 1e-9)
}

func TestScoreAlwaysInRange(t *testing.T) {
	e, clk := newTestEngine()

	states := []struct {
		typ  InteractionType
		data map[string]any
		gap  time.Duration
	}{
		{InteractionClick, nil, 0},
		{InteractionQuizSubmit, map[string]any{"correct": true}, time.Second},
		{InteractionQuizSubmit, nil, 45 * time.Minute},
		{InteractionVideoWatch, nil, 3 * time.Hour},
		{InteractionType("unknown"), map[string]any{"x": 1}, time.Minute},
	}

	check := func(s Score) {
		for name, v := range map[string]float64{
			"overall":       s.Overall,
			"participation": s.Participation,
			"accuracy":      s.Accuracy,
			"time_on_task":  s.TimeOnTask,
			"consistency":   s.Consistency,
		} {
			assert.GreaterOrEqualf(t, v, 0.0, "%s below range", name)
			assert.LessOrEqualf(t, v, 1.0, "%s above range", name)
		}
	}

	check(e.CalculateScore("s1", "u1"))
	for _, st := range states {
		clk.Advance(st.gap)
		e.TrackInteraction("s1", "u1", st.typ, st.data)
		check(e.CalculateScore("s1", "u1"))
	}
}

func TestCalculateScoreIsStableWithoutNewEvents(t *testing.T) {
	e, clk := newTestEngine()

	e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": true})
	clk.Advance(5 * time.Minute)

	first := e.CalculateScore("s1", "u1")
	second := e.CalculateScore("s1", "u1")
	assert.Equal(t, first, second)
}
