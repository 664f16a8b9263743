package engagement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendBreakTiers(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		duration time.Duration
		overall  float64
		want     BreakType
		minutes  time.Duration
	}{
		{"short session still engaged", 20 * time.Minute, 0.8, BreakMicro, 3 * time.Minute},
		{"short session low score", 20 * time.Minute, 0.5, BreakShort, 7 * time.Minute},
		{"under an hour", 50 * time.Minute, 0.9, BreakShort, 7 * time.Minute},
		{"over an hour", 100 * time.Minute, 0.9, BreakExtended, 15 * time.Minute},
		{"micro boundary is exclusive", 30 * time.Minute, 0.9, BreakShort, 7 * time.Minute},
		{"score boundary is exclusive", 20 * time.Minute, 0.6, BreakShort, 7 * time.Minute},
		{"hour boundary is exclusive", 60 * time.Minute, 0.9, BreakExtended, 15 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recommendBreak(cfg, tt.duration, tt.overall)
			assert.Equal(t, tt.want, rec.Type)
			assert.Equal(t, tt.minutes, rec.Duration)
			assert.NotEmpty(t, rec.Activities)
		})
	}
}

func TestBreakDueConditions(t *testing.T) {
	cfg := DefaultConfig()
	start := time.Date(2026, 5, 11, 9, 0, 0, 0, time.UTC)

	at := func(elapsed time.Duration) (Metrics, time.Time) {
		return Metrics{StartTime: start, TotalTime: elapsed}, start.Add(elapsed)
	}

	// Early in the session with a good score: no break yet.
	m, now := at(10 * time.Minute)
	assert.False(t, breakDue(cfg, m, 0.9, now))

	// Deep into the Pomodoro interval with no recorded break.
	m, now = at(23 * time.Minute)
	assert.True(t, breakDue(cfg, m, 0.9, now))

	// A recorded break resets the interval.
	m, now = at(23 * time.Minute)
	m.LastBreak = start.Add(20 * time.Minute)
	assert.False(t, breakDue(cfg, m, 0.9, now))

	// Approaching the max session length trips regardless of breaks.
	m, now = at(40 * time.Minute)
	m.LastBreak = start.Add(39 * time.Minute)
	assert.True(t, breakDue(cfg, m, 0.9, now))

	// A sagging score alone is enough.
	m, now = at(5 * time.Minute)
	assert.True(t, breakDue(cfg, m, 0.5, now))
}

func TestShouldTakeBreakResetsAfterRecordedBreak(t *testing.T) {
	e, clk := newTestEngine()

	// Keep the learner busy and accurate so only the Pomodoro clock decides.
	busy := func(d time.Duration) {
		steps := int(d / (15 * time.Second))
		for i := 0; i < steps; i++ {
			clk.Advance(15 * time.Second)
			e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": true})
		}
	}

	busy(20 * time.Minute)
	assert.False(t, e.ShouldTakeBreak("s1", "u1"))

	busy(3 * time.Minute)
	assert.True(t, e.ShouldTakeBreak("s1", "u1"))

	e.RecordBreak("s1", "u1")
	assert.False(t, e.ShouldTakeBreak("s1", "u1"))
}

func TestBreakRecommendationThroughEngine(t *testing.T) {
	e, clk := newTestEngine()

	// An engaged 20-minute session earns the micro tier.
	for i := 0; i < 40; i++ {
		if i > 0 {
			clk.Advance(30 * time.Second)
		}
		e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": true})
	}

	rec := e.BreakRecommendation("s1", "u1")
	require.Equal(t, BreakMicro, rec.Type)
	assert.Equal(t, MicroBreakDuration, rec.Duration)

	// The same learner an hour in drops to the extended tier.
	clk.Advance(45 * time.Minute)
	rec = e.BreakRecommendation("s1", "u1")
	assert.Equal(t, BreakExtended, rec.Type)
}
