// Package enforce implements the consent/friction state machine, escalation
// policy, confidence assessor, and response assembly for one exchange.
package enforce

import (
	"context"
	"fmt"
	"time"

	"github.com/resolute-ai/rampart/internal/detect"
	"github.com/resolute-ai/rampart/internal/provider"
	"go.uber.org/zap"
)

// rejectionContent is returned verbatim on prompt-injection rejections.
const rejectionContent = "I've detected potential prompt injection in your message. " +
	"I cannot process this request."

// Enforcer runs the detection-and-consent pipeline for inbound messages.
// Callers must guarantee at most one in-flight Process call per session id.
type Enforcer struct {
	bank     *detect.Bank
	provider provider.Provider
	sessions *SessionStore
	prompts  map[detect.Topic]string // friction prompt overrides
	logger   *zap.Logger
}

// Config wires an Enforcer.
type Config struct {
	Bank     *detect.Bank
	Provider provider.Provider
	Sessions *SessionStore // nil for a fresh private store
	Prompts  map[detect.Topic]string
	Logger   *zap.Logger
}

// New creates an Enforcer.
func New(cfg Config) (*Enforcer, error) {
	if cfg.Bank == nil {
		return nil, fmt.Errorf("enforce.New: detector bank is required")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("enforce.New: provider is required")
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewSessionStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enforcer{
		bank:     cfg.Bank,
		provider: cfg.Provider,
		sessions: sessions,
		prompts:  cfg.Prompts,
		logger:   logger,
	}, nil
}

// Sessions exposes the session store for caller-controlled eviction.
func (e *Enforcer) Sessions() *SessionStore {
	return e.sessions
}

// Process runs one message through the pipeline.
//
// Transition priority per message: injection rejection, pending-friction
// re-prompt, new friction checkpoint, friction clearance, generation. Only
// the provider call can block; everything else is synchronous.
func (e *Enforcer) Process(ctx context.Context, req Request, sw Switches) (*Response, error) {
	sess := e.sessions.Get(req.SessionID)

	res := e.bank.Inspect(req.Message, sw.PIIRedactionEnabled)

	// Terminal rejection. Message-scoped: session state stays untouched.
	if res.InjectionDetected {
		e.logger.Warn("prompt injection rejected",
			zap.String("session_id", req.SessionID),
			zap.String("user_id", req.UserID),
		)
		return &Response{
			Content:            rejectionContent,
			SessionID:          req.SessionID,
			Confidence:         1.0,
			InjectionDetected:  true,
			EscalationRequired: true,
			EscalationLevel:    EscalationSecurity,
			EscalationReason:   reasonInjection,
			Timestamp:          time.Now().UTC(),
		}, nil
	}

	tier := TierForTopics(res.Topics)
	escLevel, escReason := Escalate(res.Topics, sw.EscalationEnabled)

	// Pending checkpoint, still unanswered: re-emit the prompt.
	if sess.State == StateAwaitingFrictionResponse && req.FrictionResponse == "" {
		return e.frictionResponse(req.SessionID, sess.PendingTopic, tier, escLevel, escReason), nil
	}

	// New sensitive topic without consent or a friction answer: arm the
	// checkpoint for the primary topic.
	if sw.FrictionEnabled && len(res.Topics) > 0 && !req.ConsentGiven && req.FrictionResponse == "" {
		primary := res.PrimaryTopic()
		sess.State = StateAwaitingFrictionResponse
		sess.PendingTopic = primary
		e.logger.Info("friction checkpoint armed",
			zap.String("session_id", req.SessionID),
			zap.String("topic", primary.String()),
			zap.String("consent_tier", tier.String()),
		)
		return e.frictionResponse(req.SessionID, primary, tier, escLevel, escReason), nil
	}

	// A friction answer clears the checkpoint unconditionally; its quality
	// is the TRS engine's concern.
	if req.FrictionResponse != "" {
		sess.State = StateIdle
		sess.PendingTopic = detect.TopicUnspecified
	}

	topicNames := make([]string, len(res.Topics))
	for i, t := range res.Topics {
		topicNames[i] = t.String()
	}

	content, err := e.provider.Generate(ctx, provider.Request{
		SessionID: req.SessionID,
		Message:   res.Redacted,
		Topics:    topicNames,
	})
	if err != nil {
		return nil, fmt.Errorf("Process: provider: %w", err)
	}

	confidence, caveats := Assess(res.Topics)

	resp := &Response{
		Content:            content,
		SessionID:          req.SessionID,
		Confidence:         confidence,
		Caveats:            caveats,
		FrictionApplied:    len(res.Topics) > 0,
		ConsentTier:        tier,
		PIIRedacted:        res.RedactionCount > 0,
		RedactionCount:     res.RedactionCount,
		EscalationRequired: escLevel != EscalationNone,
		EscalationLevel:    escLevel,
		EscalationReason:   escReason,
		Timestamp:          time.Now().UTC(),
	}

	hash, err := auditHash(resp)
	if err != nil {
		return nil, fmt.Errorf("Process: %w", err)
	}
	resp.AuditHash = hash

	return resp, nil
}

// frictionResponse assembles the short-circuit response for an armed or
// pending checkpoint. Consent tier and escalation are attached so a caller
// can act on them without waiting for the acknowledged retry.
func (e *Enforcer) frictionResponse(sessionID string, topic detect.Topic, tier ConsentTier, escLevel EscalationLevel, escReason string) *Response {
	return &Response{
		Content:            "",
		SessionID:          sessionID,
		Confidence:         0.0,
		FrictionApplied:    true,
		FrictionPrompt:     e.frictionPrompt(topic),
		RequiresResponse:   true,
		ConsentTier:        tier,
		RequiresConsent:    true,
		EscalationRequired: escLevel != EscalationNone,
		EscalationLevel:    escLevel,
		EscalationReason:   escReason,
		Timestamp:          time.Now().UTC(),
	}
}
