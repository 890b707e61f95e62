package storage

import "time"

// LedgerWriter is the external audit collaborator: it persists enforcement
// events and TRS snapshots. Writes must NEVER block the caller.
type LedgerWriter interface {
	WriteEnforcement(event *EnforcementEvent)
	WriteSnapshot(record *TRSRecord)
	Close()
}

// EnforcementEvent is the coarse per-exchange audit record persisted from
// each pipeline invocation.
type EnforcementEvent struct {
	RequestID         string
	TenantID          string
	SessionID         string
	UserID            string
	Timestamp         time.Time
	MessagePreview    string // first 500 chars of the raw message
	MessageHash       string // SHA-256 of the raw message
	MessageSize       uint32
	ConsentTier       string
	Confidence        float64
	Caveats           []string
	FrictionApplied   bool
	RequiresResponse  bool
	InjectionDetected bool
	PIIRedacted       bool
	RedactionCount    uint32
	EscalationLevel   string
	EscalationReason  string
	AuditHash         string
	LatencyMs         float32
}

// TRSRecord is a chained Trust Resilience snapshot as persisted to the
// ledger. PreviousHash/RecordHash carry the chain; storage never recomputes
// them.
type TRSRecord struct {
	TenantID                   string
	SessionID                  string
	UserID                     string
	Timestamp                  time.Time
	FrictionEngagement         float64
	VerificationActions        float64
	AcknowledgedResponsibility float64
	CorrectionClarification    float64
	CompositeScore             float64
	GamingDetected             bool
	GamingIndicators           []string
	PreviousHash               string
	RecordHash                 string
}

// MessagePreviewLength is the max chars stored in message_preview.
const MessagePreviewLength = 500

// TruncateMessage returns the first maxLen runes of a message for preview
// storage. It never splits a multi-byte UTF-8 character.
func TruncateMessage(message string, maxLen int) string {
	runes := []rune(message)
	if len(runes) <= maxLen {
		return message
	}
	return string(runes[:maxLen])
}
