package enforce

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// auditRecord is the canonical field set hashed for per-exchange audit.
// All fields are scalar (no maps) so json.Marshal field order is fixed by
// declaration and the hash is reproducible.
type auditRecord struct {
	SessionID   string  `json:"session_id"`
	Timestamp   string  `json:"timestamp"`
	ConsentTier string  `json:"consent_tier"`
	Confidence  float64 `json:"confidence"`
	Escalation  string  `json:"escalation"`
}

// auditHash computes the unchained per-response audit hash. A marshal
// failure is an internal defect and propagates; a silently empty hash would
// break the audit guarantee.
func auditHash(r *Response) (string, error) {
	rec := auditRecord{
		SessionID:   r.SessionID,
		Timestamp:   r.Timestamp.UTC().Format(time.RFC3339Nano),
		ConsentTier: r.ConsentTier.String(),
		Confidence:  r.Confidence,
		Escalation:  r.EscalationLevel.String(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("auditHash: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
