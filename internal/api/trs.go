package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/resolute-ai/rampart/internal/storage"
	"github.com/resolute-ai/rampart/internal/trs"
)

// handleTRS implements POST /v1/trs: score one interaction and append a
// snapshot to the chain.
func (d *Dependencies) handleTRS(w http.ResponseWriter, r *http.Request) {
	var req TRSRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "session_id is required"})
		return
	}

	tenant := tenantFromContext(r.Context())
	if tenant == nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "missing tenant context"})
		return
	}

	d.trsMu.Lock()
	snap, err := d.Engine.Calculate(trs.Input{
		SessionID:           req.SessionID,
		UserID:              req.UserID,
		FrictionResponse:    req.FrictionResponse,
		FrictionPrompt:      req.FrictionPrompt,
		ResponseTimeMs:      req.ResponseTimeMs,
		VerificationCount:   req.VerificationCount,
		ConsentAcknowledged: req.ConsentAcknowledged,
		CorrectionsMade:     req.CorrectionsMade,
	})
	d.trsMu.Unlock()
	if err != nil {
		d.Logger.Error("trust score calculation failed", zap.Error(err), zap.String("session_id", req.SessionID))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Trust score calculation failed"})
		return
	}

	// Fire-and-forget: append the snapshot to the ledger.
	d.Writer.WriteSnapshot(&storage.TRSRecord{
		TenantID:                   tenant.ID,
		SessionID:                  snap.SessionID,
		UserID:                     snap.UserID,
		Timestamp:                  snap.Timestamp,
		FrictionEngagement:         snap.FrictionEngagement,
		VerificationActions:        snap.VerificationActions,
		AcknowledgedResponsibility: snap.AcknowledgedResponsibility,
		CorrectionClarification:    snap.CorrectionClarification,
		CompositeScore:             snap.CompositeScore,
		GamingDetected:             snap.GamingDetected,
		GamingIndicators:           snap.GamingIndicators,
		PreviousHash:               snap.PreviousHash,
		RecordHash:                 snap.RecordHash,
	})

	writeJSON(w, http.StatusOK, TRSSnapshotResp{
		SessionID:                  snap.SessionID,
		UserID:                     snap.UserID,
		Timestamp:                  snap.Timestamp,
		FrictionEngagement:         snap.FrictionEngagement,
		VerificationActions:        snap.VerificationActions,
		AcknowledgedResponsibility: snap.AcknowledgedResponsibility,
		CorrectionClarification:    snap.CorrectionClarification,
		CompositeScore:             snap.CompositeScore,
		GamingDetected:             snap.GamingDetected,
		GamingIndicators:           indicatorsOrEmpty(snap.GamingIndicators),
		PreviousHash:               snap.PreviousHash,
		RecordHash:                 snap.RecordHash,
	})
}

// handleAnalyze implements POST /v1/trs/analyze: standalone keyword analysis
// of a message, without touching the chain.
func (d *Dependencies) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "message is required"})
		return
	}

	analyzer := trs.KeywordAnalyzer{}
	writeJSON(w, http.StatusOK, AnalyzeResponse{
		QualityScore:       analyzer.AnalyzeFrictionResponse(req.Message, req.FrictionPrompt),
		VerificationIntent: analyzer.DetectVerificationIntent(req.Message),
		CorrectionIntent:   analyzer.DetectCorrectionIntent(req.Message),
	})
}

// indicatorsOrEmpty keeps gaming_indicators as [] rather than null in JSON.
func indicatorsOrEmpty(indicators []string) []string {
	if indicators == nil {
		return []string{}
	}
	return indicators
}
