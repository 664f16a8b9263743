package engagement

// AlertType enumerates the engagement alert kinds.
type AlertType string

const (
	AlertLowAttention      AlertType = "low_attention"
	AlertDecliningAccuracy AlertType = "declining_accuracy"
	AlertExtendedSession   AlertType = "extended_session"
	AlertBreakNeeded       AlertType = "break_needed"
)

// Severity ranks an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a typed signal derived from the current score and metrics, meant
// to drive a UI recommendation. Alerts are not errors.
type Alert struct {
	Type           AlertType `json:"type"`
	Severity       Severity  `json:"severity"`
	Message        string    `json:"message"`
	Recommendation string    `json:"recommendation"`
}

// alertCopy returns the fixed message and recommendation for an alert type.
func alertCopy(t AlertType) (message, recommendation string) {
	switch t {
	case AlertLowAttention:
		return "Engagement has dropped below the expected level.",
			"Switch to a more interactive exercise or take a short break."
	case AlertDecliningAccuracy:
		return "Most recent answers have been incorrect.",
			"Revisit the current topic or step the difficulty down."
	case AlertExtendedSession:
		return "This study session has been running for a long time.",
			"Wrap up soon and continue in a fresh session."
	case AlertBreakNeeded:
		return "A break is due.",
			"Step away from the screen for a few minutes before continuing."
	default:
		return "", ""
	}
}

// buildAlerts applies the alert rules in their fixed emission order. Several
// alerts can fire at once; none suppresses another.
func buildAlerts(cfg Config, m Metrics, overall, accuracy float64, breakIsDue bool) []Alert {
	var alerts []Alert

	add := func(t AlertType, s Severity) {
		msg, rec := alertCopy(t)
		alerts = append(alerts, Alert{Type: t, Severity: s, Message: msg, Recommendation: rec})
	}

	switch {
	case overall < cfg.LowAttentionCritical:
		add(AlertLowAttention, SeverityCritical)
	case overall < cfg.LowAttentionWarning:
		add(AlertLowAttention, SeverityWarning)
	}

	if m.TotalQuestions >= cfg.AccuracyAlertMinQuestions && accuracy < cfg.AccuracyAlertFloor {
		add(AlertDecliningAccuracy, SeverityWarning)
	}

	if m.TotalTime > cfg.ExtendedSessionAfter {
		add(AlertExtendedSession, SeverityWarning)
	}

	if breakIsDue {
		add(AlertBreakNeeded, SeverityInfo)
	}

	return alerts
}
