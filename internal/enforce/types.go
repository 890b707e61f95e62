package enforce

import (
	"time"

	"github.com/resolute-ai/rampart/internal/detect"
)

// ConsentTier classifies how strict the consent gateway must be for an
// exchange.
type ConsentTier int

const (
	TierDefault ConsentTier = iota
	TierSensitive
	TierResearch
	TierForensic
)

// String returns the lowercase tier name.
func (t ConsentTier) String() string {
	switch t {
	case TierSensitive:
		return "sensitive"
	case TierResearch:
		return "research"
	case TierForensic:
		return "forensic"
	default:
		return "default"
	}
}

// EscalationLevel identifies the organizational function an exchange must be
// escalated to.
type EscalationLevel int

const (
	EscalationNone EscalationLevel = iota
	EscalationLegal
	EscalationSecurity
	EscalationEthics
	EscalationCrisis
)

// String returns the lowercase level name.
func (l EscalationLevel) String() string {
	switch l {
	case EscalationLegal:
		return "legal"
	case EscalationSecurity:
		return "security"
	case EscalationEthics:
		return "ethics"
	case EscalationCrisis:
		return "crisis"
	default:
		return "none"
	}
}

// Request is one inbound message plus its per-call telemetry.
type Request struct {
	UserID    string
	SessionID string
	Message   string

	// ConsentGiven marks that the caller already holds consent for the
	// required tier; it suppresses new friction checkpoints.
	ConsentGiven bool

	// FrictionResponse is the user's answer to a previously issued friction
	// prompt. Any non-empty value clears the pending checkpoint; its quality
	// is judged by the TRS engine, not here.
	FrictionResponse string
}

// Response is the outward-facing enforcement record for one exchange.
// Immutable once Process returns it.
type Response struct {
	Content   string
	SessionID string

	Confidence float64
	Caveats    []string

	FrictionApplied  bool
	FrictionPrompt   string
	RequiresResponse bool

	ConsentTier     ConsentTier
	RequiresConsent bool
	ConsentPrompt   string

	PIIRedacted       bool
	RedactionCount    int
	InjectionDetected bool

	EscalationRequired bool
	EscalationLevel    EscalationLevel
	EscalationReason   string

	// AuditHash is set only on generated responses; short-circuit responses
	// (injection rejection, friction prompts) never reach the assembler.
	AuditHash string
	Timestamp time.Time
}

// TierForTopics computes the consent tier required by a set of detected
// topics, independent of session state.
func TierForTopics(topics []detect.Topic) ConsentTier {
	var medical, legal, financial bool
	for _, t := range topics {
		switch t {
		case detect.TopicCrisis:
			return TierForensic
		case detect.TopicMedical:
			medical = true
		case detect.TopicLegal:
			legal = true
		case detect.TopicFinancial:
			financial = true
		}
	}
	if medical || legal {
		return TierSensitive
	}
	if financial {
		return TierSensitive
	}
	return TierDefault
}
