package engagement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOLSSlope(t *testing.T) {
	assert.Equal(t, 0.0, olsSlope(nil))
	assert.Equal(t, 0.0, olsSlope([]float64{0.7}))
	assert.InDelta(t, 1.0, olsSlope([]float64{0, 1, 2}), 1e-9)
	assert.InDelta(t, 0.0, olsSlope([]float64{0.5, 0.5, 0.5}), 1e-9)
	assert.InDelta(t, -0.2, olsSlope([]float64{0.9, 0.7, 0.5, 0.3, 0.1}), 1e-9)
}

func TestClassifyTrend(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		accs []float64
		want Trend
	}{
		{"no history", nil, TrendStable},
		{"two sessions is not enough", []float64{0.1, 0.9}, TrendStable},
		{"improving", []float64{0.1, 0.3, 0.5, 0.7, 0.9}, TrendImproving},
		{"declining", []float64{0.9, 0.7, 0.5, 0.3, 0.1}, TrendDeclining},
		{"flat", []float64{0.6, 0.6, 0.6}, TrendStable},
		{"noise within threshold", []float64{0.60, 0.64, 0.58, 0.62, 0.61}, TrendStable},
		{"only the last five count", []float64{0.9, 0.9, 0.1, 0.3, 0.5, 0.7, 0.9}, TrendImproving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyTrend(cfg, tt.accs))
		})
	}
}

func TestTrendThroughEngineHistory(t *testing.T) {
	e, _ := newTestEngine()

	// Two finished sessions plus the active one is enough history.
	e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": true})
	e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": true})
	e.Evict("s1", "u1")

	e.TrackInteraction("s2", "u1", InteractionQuizSubmit, map[string]any{"correct": true})
	e.TrackInteraction("s2", "u1", InteractionQuizSubmit, map[string]any{"correct": false})
	e.Evict("s2", "u1")

	e.TrackInteraction("s3", "u1", InteractionQuizSubmit, map[string]any{"correct": false})
	e.TrackInteraction("s3", "u1", InteractionQuizSubmit, map[string]any{"correct": false})

	// Accuracies run 1.0, 0.5, 0.0: clearly declining.
	score := e.CalculateScore("s3", "u1")
	assert.Equal(t, TrendDeclining, score.Trend)
}

func TestZeroQuestionSessionsCountAsNeutral(t *testing.T) {
	e, _ := newTestEngine()

	// Sessions with no quiz activity enter the fit at the neutral accuracy.
	e.TrackInteraction("s1", "u1", InteractionClick, nil)
	e.Evict("s1", "u1")
	e.TrackInteraction("s2", "u1", InteractionClick, nil)
	e.Evict("s2", "u1")
	e.TrackInteraction("s3", "u1", InteractionClick, nil)

	score := e.CalculateScore("s3", "u1")
	assert.Equal(t, TrendStable, score.Trend)
}
