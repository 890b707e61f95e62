package api

import (
	"encoding/json"
	"time"
)

// --- POST /v1/enforce request/response ---

// EnforceRequest is the JSON body for POST /v1/enforce.
type EnforceRequest struct {
	UserID           string `json:"user_id"`
	SessionID        string `json:"session_id"`
	Message          string `json:"message"`
	ConsentGiven     bool   `json:"consent_given,omitempty"`
	FrictionResponse string `json:"friction_response,omitempty"`
}

// EnforceResponse is the JSON form of one enforcement exchange.
type EnforceResponse struct {
	Content   string `json:"content"`
	SessionID string `json:"session_id"`
	RequestID string `json:"request_id"`

	Confidence float64  `json:"confidence"`
	Caveats    []string `json:"caveats"`

	FrictionApplied  bool   `json:"friction_applied"`
	FrictionPrompt   string `json:"friction_prompt,omitempty"`
	RequiresResponse bool   `json:"requires_response"`

	ConsentTier     string `json:"consent_tier"`
	RequiresConsent bool   `json:"requires_consent"`

	PIIRedacted       bool `json:"pii_redacted"`
	RedactionCount    int  `json:"redaction_count"`
	InjectionDetected bool `json:"injection_detected"`

	EscalationRequired bool   `json:"escalation_required"`
	EscalationLevel    string `json:"escalation_level"`
	EscalationReason   string `json:"escalation_reason,omitempty"`

	AuditHash string    `json:"audit_hash,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs float64   `json:"latency_ms"`
}

// --- POST /v1/trs request/response ---

// TRSRequest carries the telemetry for one trust score calculation.
type TRSRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`

	FrictionResponse string `json:"friction_response,omitempty"`
	FrictionPrompt   string `json:"friction_prompt,omitempty"`
	ResponseTimeMs   int64  `json:"response_time_ms,omitempty"`

	VerificationCount   int  `json:"verification_count,omitempty"`
	ConsentAcknowledged bool `json:"consent_acknowledged,omitempty"`
	CorrectionsMade     int  `json:"corrections_made,omitempty"`
}

// TRSSnapshotResp mirrors a chained trust score snapshot.
type TRSSnapshotResp struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`

	FrictionEngagement         float64 `json:"friction_engagement"`
	VerificationActions        float64 `json:"verification_actions"`
	AcknowledgedResponsibility float64 `json:"acknowledged_responsibility"`
	CorrectionClarification    float64 `json:"correction_clarification"`
	CompositeScore             float64 `json:"composite_score"`

	GamingDetected   bool     `json:"gaming_detected"`
	GamingIndicators []string `json:"gaming_indicators"`

	PreviousHash string `json:"previous_hash,omitempty"`
	RecordHash   string `json:"record_hash"`
}

// AnalyzeRequest is the JSON body for POST /v1/trs/analyze.
type AnalyzeRequest struct {
	Message        string `json:"message"`
	FrictionPrompt string `json:"friction_prompt,omitempty"`
}

// AnalyzeResponse holds the standalone keyword analysis of a message.
type AnalyzeResponse struct {
	QualityScore       float64 `json:"quality_score"`
	VerificationIntent bool    `json:"verification_intent"`
	CorrectionIntent   bool    `json:"correction_intent"`
}

// --- Tenant CRUD ---

// CreateTenantReq is the JSON body for POST /api/rampart/tenants.
type CreateTenantReq struct {
	Name string `json:"name"`
}

// CreateTenantResp includes the plaintext API key (shown once).
type CreateTenantResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	APIKey       string    `json:"api_key"`
	APIKeyPrefix string    `json:"api_key_prefix"`
	CreatedAt    time.Time `json:"created_at"`
}

// UpdateTenantReq is the JSON body for PATCH /api/rampart/tenants/{id}.
type UpdateTenantReq struct {
	Name *string `json:"name,omitempty"`
}

// TenantResp is a tenant without its plaintext key.
type TenantResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	APIKeyPrefix string    `json:"api_key_prefix"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RotateKeyResp includes the new plaintext API key (shown once).
type RotateKeyResp struct {
	APIKey       string `json:"api_key"`
	APIKeyPrefix string `json:"api_key_prefix"`
}

// UpdatePolicyReq is the JSON body for PATCH .../policy: a raw enforcement
// config document stored as-is.
type UpdatePolicyReq struct {
	EnforcementConfig json.RawMessage `json:"enforcement_config"`
}

// PolicyResp echoes the stored enforcement config.
type PolicyResp struct {
	TenantID          string          `json:"tenant_id"`
	EnforcementConfig json.RawMessage `json:"enforcement_config"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ErrorResp is a standard error response body.
type ErrorResp struct {
	Detail string `json:"detail"`
}
