package engagement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alertTypes(alerts []Alert) []AlertType {
	types := make([]AlertType, len(alerts))
	for i, a := range alerts {
		types[i] = a.Type
	}
	return types
}

func TestBuildAlertsThresholds(t *testing.T) {
	cfg := DefaultConfig()

	// A healthy session raises nothing.
	m := Metrics{TotalQuestions: 5, CorrectAnswers: 5, TotalTime: 10 * time.Minute}
	alerts := buildAlerts(cfg, m, 0.9, 1.0, false)
	assert.Empty(t, alerts)

	// Warning band.
	alerts = buildAlerts(cfg, m, 0.55, 1.0, false)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLowAttention, alerts[0].Type)
	assert.Equal(t, SeverityWarning, alerts[0].Severity)

	// Critical band replaces the warning, never doubles it.
	alerts = buildAlerts(cfg, m, 0.3, 1.0, false)
	require.Len(t, alerts, 1)
	assert.Equal(t, SeverityCritical, alerts[0].Severity)
	assert.NotEmpty(t, alerts[0].Message)
	assert.NotEmpty(t, alerts[0].Recommendation)
}

func TestBuildAlertsAccuracyNeedsSamples(t *testing.T) {
	cfg := DefaultConfig()

	// Two bad answers are not yet a signal.
	m := Metrics{TotalQuestions: 2, CorrectAnswers: 0, TotalTime: 10 * time.Minute}
	alerts := buildAlerts(cfg, m, 0.9, 0.0, false)
	assert.Empty(t, alerts)

	m.TotalQuestions = 3
	alerts = buildAlerts(cfg, m, 0.9, 0.0, false)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertDecliningAccuracy, alerts[0].Type)
	assert.Equal(t, SeverityWarning, alerts[0].Severity)
}

func TestBuildAlertsEmissionOrder(t *testing.T) {
	cfg := DefaultConfig()

	m := Metrics{TotalQuestions: 4, CorrectAnswers: 1, TotalTime: 3 * time.Hour}
	alerts := buildAlerts(cfg, m, 0.2, 0.25, true)

	assert.Equal(t, []AlertType{
		AlertLowAttention,
		AlertDecliningAccuracy,
		AlertExtendedSession,
		AlertBreakNeeded,
	}, alertTypes(alerts))
	assert.Equal(t, SeverityCritical, alerts[0].Severity)
	assert.Equal(t, SeverityInfo, alerts[3].Severity)
}

func TestLongStrugglingSessionScenario(t *testing.T) {
	e, clk := newTestEngine()

	// One correct answer out of four, then three hours on the clock.
	e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": true})
	for i := 0; i < 3; i++ {
		e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": false})
	}
	clk.Advance(3 * time.Hour)

	score := e.CalculateScore("s1", "u1")
	types := alertTypes(score.Alerts)
	assert.Contains(t, types, AlertDecliningAccuracy)
	assert.Contains(t, types, AlertExtendedSession)
}

func TestFreshSessionWarnsLowAttention(t *testing.T) {
	e, _ := newTestEngine()

	score := e.CalculateScore("s1", "u1")
	require.NotEmpty(t, score.Alerts)

	first := score.Alerts[0]
	assert.Equal(t, AlertLowAttention, first.Type)
	assert.Contains(t, []Severity{SeverityWarning, SeverityCritical}, first.Severity)
}
