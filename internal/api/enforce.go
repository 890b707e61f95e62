package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resolute-ai/rampart/internal/enforce"
	"github.com/resolute-ai/rampart/internal/storage"
)

// handleEnforce implements POST /v1/enforce.
// Auth middleware has already validated the Bearer token and injected the
// tenant.
func (d *Dependencies) handleEnforce(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req EnforceRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "session_id is required"})
		return
	}
	if req.Message == "" && req.FrictionResponse == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "message is required"})
		return
	}

	tenant := tenantFromContext(r.Context())
	if tenant == nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "missing tenant context"})
		return
	}

	sw := tenant.Policy.Switches(d.Defaults)

	resp, err := d.Enforcer.Process(r.Context(), enforce.Request{
		UserID:           req.UserID,
		SessionID:        req.SessionID,
		Message:          req.Message,
		ConsentGiven:     req.ConsentGiven,
		FrictionResponse: req.FrictionResponse,
	}, sw)
	if err != nil {
		d.Logger.Error("enforcement failed", zap.Error(err), zap.String("session_id", req.SessionID))
		writeJSON(w, http.StatusBadGateway, ErrorResp{Detail: "Enforcement pipeline failed"})
		return
	}

	requestID := uuid.New().String()
	latencyMs := float64(time.Since(start)) / float64(time.Millisecond)

	// Fire-and-forget: write the enforcement event to the ledger.
	d.writeEnforcementEvent(req, tenant.ID, requestID, resp, float32(latencyMs))

	writeJSON(w, http.StatusOK, EnforceResponse{
		Content:            resp.Content,
		SessionID:          resp.SessionID,
		RequestID:          requestID,
		Confidence:         resp.Confidence,
		Caveats:            caveatsOrEmpty(resp.Caveats),
		FrictionApplied:    resp.FrictionApplied,
		FrictionPrompt:     resp.FrictionPrompt,
		RequiresResponse:   resp.RequiresResponse,
		ConsentTier:        resp.ConsentTier.String(),
		RequiresConsent:    resp.RequiresConsent,
		PIIRedacted:        resp.PIIRedacted,
		RedactionCount:     resp.RedactionCount,
		InjectionDetected:  resp.InjectionDetected,
		EscalationRequired: resp.EscalationRequired,
		EscalationLevel:    resp.EscalationLevel.String(),
		EscalationReason:   resp.EscalationReason,
		AuditHash:          resp.AuditHash,
		Timestamp:          resp.Timestamp,
		LatencyMs:          latencyMs,
	})
}

// writeEnforcementEvent builds an EnforcementEvent and fires it to the async
// ledger writer.
func (d *Dependencies) writeEnforcementEvent(
	req EnforceRequest,
	tenantID, requestID string,
	resp *enforce.Response,
	latencyMs float32,
) {
	hashBytes := sha256.Sum256([]byte(req.Message))

	d.Writer.WriteEnforcement(&storage.EnforcementEvent{
		RequestID:         requestID,
		TenantID:          tenantID,
		SessionID:         req.SessionID,
		UserID:            req.UserID,
		Timestamp:         time.Now(),
		MessagePreview:    storage.TruncateMessage(req.Message, storage.MessagePreviewLength),
		MessageHash:       hex.EncodeToString(hashBytes[:]),
		MessageSize:       uint32(len(req.Message)),
		ConsentTier:       resp.ConsentTier.String(),
		Confidence:        resp.Confidence,
		Caveats:           resp.Caveats,
		FrictionApplied:   resp.FrictionApplied,
		RequiresResponse:  resp.RequiresResponse,
		InjectionDetected: resp.InjectionDetected,
		PIIRedacted:       resp.PIIRedacted,
		RedactionCount:    uint32(resp.RedactionCount),
		EscalationLevel:   resp.EscalationLevel.String(),
		EscalationReason:  resp.EscalationReason,
		AuditHash:         resp.AuditHash,
		LatencyMs:         latencyMs,
	})
}

// caveatsOrEmpty keeps caveats as [] rather than null in JSON.
func caveatsOrEmpty(caveats []string) []string {
	if caveats == nil {
		return []string{}
	}
	return caveats
}
