package engagement

import "time"

// BreakType enumerates the recommendation tiers.
type BreakType string

const (
	BreakMicro    BreakType = "micro"
	BreakShort    BreakType = "short"
	BreakExtended BreakType = "extended"
)

// Tier durations are fixed policy, not tuning knobs.
const (
	MicroBreakDuration    = 3 * time.Minute
	ShortBreakDuration    = 7 * time.Minute
	ExtendedBreakDuration = 15 * time.Minute
)

var (
	microActivities = []string{
		"Stand up and stretch",
		"Look at something 20 feet away for 20 seconds",
		"Take five deep breaths",
	}
	shortActivities = []string{
		"Take a short walk",
		"Hydrate and grab a snack",
		"Do some light stretching",
		"Step outside for fresh air",
	}
	extendedActivities = []string{
		"Have a proper meal",
		"Do some light exercise",
		"Catch up with a friend",
		"Try a short mindfulness exercise",
		"If you feel drained, resume tomorrow",
	}
)

// BreakRecommendation proposes how the learner should pause.
type BreakRecommendation struct {
	Type       BreakType
	Duration   time.Duration
	Activities []string
}

// ShouldTakeBreak reports whether a break is currently due for the session.
// A break is due when the time since the last recorded break runs deep into
// the Pomodoro interval, when the session approaches the maximum length, or
// when the overall score falls under the break floor.
func (e *Engine) ShouldTakeBreak(sessionID, userID string) bool {
	ev := e.evaluate(sessionID, userID)
	return breakDue(e.cfg, ev.metrics, e.overallOf(ev), ev.now)
}

func breakDue(cfg Config, m Metrics, overall float64, now time.Time) bool {
	lastBreak := m.LastBreak
	if lastBreak.IsZero() {
		lastBreak = m.StartTime
	}
	sinceBreak := now.Sub(lastBreak)

	pomodoroDue := sinceBreak > fractionOf(cfg.PomodoroInterval, cfg.PomodoroDueFraction)
	sessionTooLong := m.TotalTime > fractionOf(cfg.MaxSessionLength, cfg.MaxSessionDueFraction)
	return pomodoroDue || sessionTooLong || overall < cfg.BreakScoreFloor
}

func fractionOf(d time.Duration, fraction float64) time.Duration {
	return time.Duration(float64(d) * fraction)
}

// BreakRecommendation picks the break tier for the session. The ladder is
// strict: micro for short, still-engaged sessions; short under an hour;
// extended for everything beyond.
func (e *Engine) BreakRecommendation(sessionID, userID string) BreakRecommendation {
	ev := e.evaluate(sessionID, userID)
	return recommendBreak(e.cfg, ev.metrics.TotalTime, e.overallOf(ev))
}

func recommendBreak(cfg Config, sessionDuration time.Duration, overall float64) BreakRecommendation {
	switch {
	case sessionDuration < cfg.MicroBreakUnder && overall > cfg.MicroScoreFloor:
		return BreakRecommendation{Type: BreakMicro, Duration: MicroBreakDuration, Activities: microActivities}
	case sessionDuration < cfg.ShortBreakUnder:
		return BreakRecommendation{Type: BreakShort, Duration: ShortBreakDuration, Activities: shortActivities}
	default:
		return BreakRecommendation{Type: BreakExtended, Duration: ExtendedBreakDuration, Activities: extendedActivities}
	}
}
