package enforce

import "github.com/resolute-ai/rampart/internal/detect"

// Escalation reasons, fixed per level.
const (
	reasonCrisis    = "Crisis-related content detected"
	reasonLegal     = "Legal topic requiring review"
	reasonInjection = "Prompt injection attempt detected"
)

// Escalate maps detected topics to an organizational escalation level in
// fixed priority: crisis, then legal. Always EscalationNone when the
// escalation switch is off.
func Escalate(topics []detect.Topic, enabled bool) (EscalationLevel, string) {
	if !enabled {
		return EscalationNone, ""
	}
	var legal bool
	for _, t := range topics {
		switch t {
		case detect.TopicCrisis:
			return EscalationCrisis, reasonCrisis
		case detect.TopicLegal:
			legal = true
		}
	}
	if legal {
		return EscalationLegal, reasonLegal
	}
	return EscalationNone, ""
}
