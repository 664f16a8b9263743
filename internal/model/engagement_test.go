package model

import (
	"testing"
	"time"

	"github.com/learnpath/engage-backend/internal/engagement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidScope(t *testing.T) {
	for _, s := range KnownScopes {
		assert.True(t, ValidScope(s), s)
	}
	assert.False(t, ValidScope(""))
	assert.False(t, ValidScope("root"))
	assert.False(t, ValidScope("Ingest"))
}

func TestReportFromMetrics(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	m := engagement.Metrics{
		SessionID:        "s1",
		UserID:           "u1",
		StartTime:        start,
		LastInteraction:  start.Add(10 * time.Minute),
		InteractionCount: 12,
		CorrectAnswers:   4,
		TotalQuestions:   6,
		FocusTime:        9*time.Minute + 30*time.Second,
		TotalTime:        10 * time.Minute,
		BreaksTaken:      1,
	}

	r := ReportFromMetrics(m)
	assert.Equal(t, "s1", r.SessionID)
	assert.Equal(t, 12, r.InteractionCount)
	assert.Equal(t, int64(570_000), r.FocusMS)
	assert.Equal(t, int64(600_000), r.TotalMS)
	assert.Nil(t, r.LastBreak)

	m.LastBreak = start.Add(5 * time.Minute)
	r = ReportFromMetrics(m)
	require.NotNil(t, r.LastBreak)
	assert.Equal(t, m.LastBreak, *r.LastBreak)
}

func TestBreakPlanFrom(t *testing.T) {
	rec := engagement.BreakRecommendation{
		Type:       engagement.BreakShort,
		Duration:   7 * time.Minute,
		Activities: []string{"stretch", "hydrate"},
	}

	p := BreakPlanFrom(rec)
	assert.Equal(t, "short", p.Type)
	assert.Equal(t, 7, p.DurationMinutes)
	assert.Equal(t, []string{"stretch", "hydrate"}, p.Activities)
}
