// Package trs implements the Trust Resilience Score engine: a four-axis
// weighted measure of how genuinely a user engages with friction
// checkpoints, with anti-gaming penalties and a hash-chained snapshot
// ledger.
package trs

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Axis weights. They must sum to exactly 1.0 so the composite stays in
// [0,1].
const (
	WeightFrictionEngagement         = 0.40
	WeightVerificationActions        = 0.30
	WeightAcknowledgedResponsibility = 0.20
	WeightCorrectionClarification    = 0.10
)

// Anti-gaming thresholds.
const (
	minResponseTimeMs    = 2000 // faster acknowledgments are likely gamed
	minQualityRespLength = 20   // trimmed characters
)

// Input is the per-call telemetry scored by the engine. Missing optional
// telemetry (empty response, zero counts) is a legitimate zero axis score,
// never an error.
type Input struct {
	SessionID string
	UserID    string

	FrictionResponse string
	FrictionPrompt   string
	ResponseTimeMs   int64

	VerificationCount   int
	ConsentAcknowledged bool
	CorrectionsMade     int
}

// Engine computes TRS snapshots and maintains the chain tail. The chain
// pointer is sequential single-writer state: concurrent Calculate calls on
// one instance must be externally serialized or the chain will not form a
// valid total order.
type Engine struct {
	analyzer Analyzer
	prevHash string
}

// NewEngine creates an engine. A nil analyzer falls back to the keyword
// heuristic.
func NewEngine(analyzer Analyzer) *Engine {
	if analyzer == nil {
		analyzer = KeywordAnalyzer{}
	}
	return &Engine{analyzer: analyzer}
}

// ChainTail returns the hash of the most recent snapshot, or "" before the
// first one.
func (e *Engine) ChainTail() string {
	return e.prevHash
}

// Calculate scores one interaction and appends a snapshot to the chain.
// The chain pointer advances only after the snapshot is fully constructed
// and hashed; on error no partial record is ever linked.
func (e *Engine) Calculate(in Input) (*Snapshot, error) {
	var indicators []string

	// Friction engagement, with multiplicative anti-gaming penalties.
	frictionScore := 0.0
	if in.FrictionResponse != "" {
		frictionScore = e.analyzer.AnalyzeFrictionResponse(in.FrictionResponse, in.FrictionPrompt)

		if in.ResponseTimeMs > 0 && in.ResponseTimeMs < minResponseTimeMs {
			indicators = append(indicators, fmt.Sprintf("response_too_fast:%dms", in.ResponseTimeMs))
			frictionScore *= 0.5
		}
		if len(strings.TrimSpace(in.FrictionResponse)) < minQualityRespLength {
			indicators = append(indicators, fmt.Sprintf("response_too_short:%d", len(in.FrictionResponse)))
			frictionScore *= 0.7
		}
	}

	verificationScore := math.Min(1.0, float64(in.VerificationCount)*0.25)

	responsibilityScore := 0.0
	if in.ConsentAcknowledged {
		responsibilityScore = 1.0
	}

	correctionScore := math.Min(1.0, float64(in.CorrectionsMade)*0.33)

	composite := frictionScore*WeightFrictionEngagement +
		verificationScore*WeightVerificationActions +
		responsibilityScore*WeightAcknowledgedResponsibility +
		correctionScore*WeightCorrectionClarification

	snap := &Snapshot{
		SessionID:                  in.SessionID,
		UserID:                     in.UserID,
		Timestamp:                  time.Now().UTC(),
		FrictionEngagement:         frictionScore,
		VerificationActions:        verificationScore,
		AcknowledgedResponsibility: responsibilityScore,
		CorrectionClarification:    correctionScore,
		CompositeScore:             composite,
		GamingDetected:             len(indicators) > 0,
		GamingIndicators:           indicators,
		PreviousHash:               e.prevHash,
	}

	if err := snap.finalize(); err != nil {
		return nil, fmt.Errorf("Calculate: %w", err)
	}
	e.prevHash = snap.RecordHash

	return snap, nil
}
