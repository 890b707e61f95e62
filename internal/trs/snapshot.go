package trs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is one immutable Trust Resilience Score record. RecordHash is
// computed exactly once, in finalize, over the canonical field set; after
// that the snapshot must not be mutated.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`

	FrictionEngagement         float64 `json:"friction_engagement"`
	VerificationActions        float64 `json:"verification_actions"`
	AcknowledgedResponsibility float64 `json:"acknowledged_responsibility"`
	CorrectionClarification    float64 `json:"correction_clarification"`

	CompositeScore float64 `json:"composite_score"`

	GamingDetected   bool     `json:"gaming_detected"`
	GamingIndicators []string `json:"gaming_indicators"`

	// PreviousHash is empty on the first record of a chain.
	PreviousHash string `json:"previous_hash,omitempty"`
	RecordHash   string `json:"record_hash"`
}

// finalize computes RecordHash over a canonical, order-independent
// serialization of the snapshot's fields. json.Marshal sorts map keys, so
// the byte stream does not depend on insertion order. A serialization
// failure propagates; an empty or default hash would break the ledger.
func (s *Snapshot) finalize() error {
	var prev any // null for the first record in a chain
	if s.PreviousHash != "" {
		prev = s.PreviousHash
	}

	payload := map[string]any{
		"session_id":                  s.SessionID,
		"user_id":                     s.UserID,
		"timestamp":                   s.Timestamp.Format(time.RFC3339Nano),
		"friction_engagement":         s.FrictionEngagement,
		"verification_actions":        s.VerificationActions,
		"acknowledged_responsibility": s.AcknowledgedResponsibility,
		"correction_clarification":    s.CorrectionClarification,
		"composite_score":             s.CompositeScore,
		"gaming_detected":             s.GamingDetected,
		"previous_hash":               prev,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("snapshot finalize: %w", err)
	}

	sum := sha256.Sum256(data)
	s.RecordHash = hex.EncodeToString(sum[:])
	return nil
}
