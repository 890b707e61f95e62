package trs

import (
	"math"
	"strings"
	"testing"
)

func TestCalculate_Basic(t *testing.T) {
	e := NewEngine(nil)

	snap, err := e.Calculate(Input{
		SessionID:           "test-session-001",
		UserID:              "user-001",
		FrictionResponse:    "I understand that AI has limitations and cannot provide medical advice.",
		FrictionPrompt:      "What is your understanding of AI limitations?",
		ResponseTimeMs:      5000,
		VerificationCount:   2,
		ConsentAcknowledged: true,
		CorrectionsMade:     1,
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if snap.SessionID != "test-session-001" || snap.UserID != "user-001" {
		t.Error("identifiers must round-trip into the snapshot")
	}
	if snap.CompositeScore < 0 || snap.CompositeScore > 1 {
		t.Errorf("composite out of range: %f", snap.CompositeScore)
	}
	if snap.FrictionEngagement <= 0 {
		t.Errorf("expected positive friction engagement, got %f", snap.FrictionEngagement)
	}
	if snap.VerificationActions != 0.5 {
		t.Errorf("2 verifications must score 0.5, got %f", snap.VerificationActions)
	}
	if snap.AcknowledgedResponsibility != 1.0 {
		t.Errorf("acknowledged must score 1.0, got %f", snap.AcknowledgedResponsibility)
	}
	if snap.CorrectionClarification != 0.33 {
		t.Errorf("1 correction must score 0.33, got %f", snap.CorrectionClarification)
	}
	if snap.GamingDetected {
		t.Errorf("no gaming expected, got indicators %v", snap.GamingIndicators)
	}
	if snap.RecordHash == "" {
		t.Error("snapshot must carry a record hash")
	}
	if snap.PreviousHash != "" {
		t.Error("first snapshot must have an empty previous hash")
	}
}

func TestCalculate_CompositeIsExactWeightedSum(t *testing.T) {
	e := NewEngine(nil)

	snap, err := e.Calculate(Input{
		SessionID:           "s",
		UserID:              "u",
		FrictionResponse:    "I acknowledge and understand the limits of this system. I agree to verify claims.",
		ResponseTimeMs:      4000,
		VerificationCount:   3,
		ConsentAcknowledged: true,
		CorrectionsMade:     2,
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	want := snap.FrictionEngagement*0.40 +
		snap.VerificationActions*0.30 +
		snap.AcknowledgedResponsibility*0.20 +
		snap.CorrectionClarification*0.10
	if math.Abs(snap.CompositeScore-want) > 1e-12 {
		t.Errorf("composite %f != weighted sum %f", snap.CompositeScore, want)
	}
}

func TestCalculate_WeightsSumToOne(t *testing.T) {
	sum := WeightFrictionEngagement + WeightVerificationActions +
		WeightAcknowledgedResponsibility + WeightCorrectionClarification
	if sum != 1.0 {
		t.Errorf("weights must sum to exactly 1.0, got %f", sum)
	}
}

func TestCalculate_GamingTooFast(t *testing.T) {
	e := NewEngine(nil)

	snap, err := e.Calculate(Input{
		SessionID:        "test-session-002",
		UserID:           "user-001",
		FrictionResponse: "I fully understand and acknowledge these limitations apply here.",
		ResponseTimeMs:   500,
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if !snap.GamingDetected {
		t.Fatal("expected gaming detection")
	}
	if !hasIndicator(snap.GamingIndicators, "too_fast") {
		t.Errorf("expected too_fast indicator, got %v", snap.GamingIndicators)
	}
	if hasIndicator(snap.GamingIndicators, "too_short") {
		t.Errorf("long response must not be flagged short, got %v", snap.GamingIndicators)
	}
	if !hasIndicator(snap.GamingIndicators, "response_too_fast:500ms") {
		t.Errorf("indicator must embed the millisecond value, got %v", snap.GamingIndicators)
	}
}

func TestCalculate_GamingTooShort(t *testing.T) {
	e := NewEngine(nil)

	snap, err := e.Calculate(Input{
		SessionID:        "test-session-003",
		UserID:           "user-001",
		FrictionResponse: "yes",
		ResponseTimeMs:   3000,
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if !snap.GamingDetected {
		t.Fatal("expected gaming detection")
	}
	if !hasIndicator(snap.GamingIndicators, "response_too_short:3") {
		t.Errorf("expected too_short indicator with length, got %v", snap.GamingIndicators)
	}
}

func TestCalculate_PenaltiesCompound(t *testing.T) {
	e := NewEngine(nil)
	analyzer := KeywordAnalyzer{}

	resp := "yes"
	base := analyzer.AnalyzeFrictionResponse(resp, "")

	snap, err := e.Calculate(Input{
		SessionID:        "s",
		UserID:           "u",
		FrictionResponse: resp,
		ResponseTimeMs:   500, // both penalties apply: x0.5 * x0.7
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if len(snap.GamingIndicators) != 2 {
		t.Fatalf("expected both indicators, got %v", snap.GamingIndicators)
	}
	want := base * 0.35
	if math.Abs(snap.FrictionEngagement-want) > 1e-12 {
		t.Errorf("expected compounded score %f, got %f", want, snap.FrictionEngagement)
	}
}

func TestCalculate_NoFrictionResponseScoresZeroWithoutPenalties(t *testing.T) {
	e := NewEngine(nil)

	// A too-fast latency without any friction response is not gaming: there
	// was nothing to game.
	snap, err := e.Calculate(Input{SessionID: "s", UserID: "u", ResponseTimeMs: 10})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if snap.FrictionEngagement != 0 {
		t.Errorf("missing response must score 0, got %f", snap.FrictionEngagement)
	}
	if snap.GamingDetected || len(snap.GamingIndicators) != 0 {
		t.Errorf("no response means no gaming indicators, got %v", snap.GamingIndicators)
	}
	if snap.CompositeScore != 0 {
		t.Errorf("all-zero telemetry must yield composite 0, got %f", snap.CompositeScore)
	}
}

func TestCalculate_AxisSaturation(t *testing.T) {
	e := NewEngine(nil)

	snap, err := e.Calculate(Input{
		SessionID:         "s",
		UserID:            "u",
		VerificationCount: 10, // saturates at 4
		CorrectionsMade:   10, // saturates at 3
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if snap.VerificationActions != 1.0 {
		t.Errorf("verification must saturate at 1.0, got %f", snap.VerificationActions)
	}
	if snap.CorrectionClarification != 1.0 {
		t.Errorf("correction must saturate at 1.0, got %f", snap.CorrectionClarification)
	}
}

func TestCalculate_HashChain(t *testing.T) {
	e := NewEngine(nil)

	first, err := e.Calculate(Input{SessionID: "s", UserID: "u", ConsentAcknowledged: true})
	if err != nil {
		t.Fatalf("first Calculate: %v", err)
	}
	second, err := e.Calculate(Input{SessionID: "s", UserID: "u"})
	if err != nil {
		t.Fatalf("second Calculate: %v", err)
	}

	if first.PreviousHash != "" {
		t.Error("first record must have empty previous hash")
	}
	if second.PreviousHash != first.RecordHash {
		t.Errorf("chain broken: second.previous=%s first.record=%s", second.PreviousHash, first.RecordHash)
	}
	if e.ChainTail() != second.RecordHash {
		t.Error("chain tail must track the latest record")
	}
	if first.RecordHash == second.RecordHash {
		t.Error("distinct records must not share a hash")
	}
}

func TestSnapshot_HashDeterminismAndSensitivity(t *testing.T) {
	base := Snapshot{
		SessionID:                  "s",
		UserID:                     "u",
		FrictionEngagement:         0.4,
		VerificationActions:        0.5,
		AcknowledgedResponsibility: 1.0,
		CorrectionClarification:    0.33,
		CompositeScore:             0.543,
		GamingDetected:             false,
		PreviousHash:               "abc",
	}

	a := base
	if err := a.finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	b := base
	if err := b.finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if a.RecordHash != b.RecordHash {
		t.Error("identical fields must hash identically")
	}

	mutations := []func(*Snapshot){
		func(s *Snapshot) { s.SessionID = "other" },
		func(s *Snapshot) { s.UserID = "other" },
		func(s *Snapshot) { s.FrictionEngagement = 0.41 },
		func(s *Snapshot) { s.VerificationActions = 0.75 },
		func(s *Snapshot) { s.AcknowledgedResponsibility = 0.0 },
		func(s *Snapshot) { s.CorrectionClarification = 0.66 },
		func(s *Snapshot) { s.CompositeScore = 0.6 },
		func(s *Snapshot) { s.GamingDetected = true },
		func(s *Snapshot) { s.PreviousHash = "" },
	}
	for i, mutate := range mutations {
		c := base
		mutate(&c)
		if err := c.finalize(); err != nil {
			t.Fatalf("finalize mutation %d: %v", i, err)
		}
		if c.RecordHash == a.RecordHash {
			t.Errorf("mutation %d must change the hash", i)
		}
	}
}

func TestAnalyzer_FrictionResponseQuality(t *testing.T) {
	analyzer := KeywordAnalyzer{}

	high := analyzer.AnalyzeFrictionResponse(
		"I understand and acknowledge that AI systems have significant limitations. "+
			"I recognize that I should not rely on AI for medical, legal, or financial advice "+
			"without consulting qualified professionals.",
		"What is your understanding of AI limitations?")
	low := analyzer.AnalyzeFrictionResponse("ok", "What is your understanding of AI limitations?")

	if high <= low {
		t.Errorf("high-quality response must outscore low: %f <= %f", high, low)
	}
	if high <= 0.5 {
		t.Errorf("expected high score above 0.5, got %f", high)
	}
	if low >= 0.3 {
		t.Errorf("expected low score below 0.3, got %f", low)
	}
	if empty := analyzer.AnalyzeFrictionResponse("", ""); empty != 0 {
		t.Errorf("empty response must score 0, got %f", empty)
	}
}

func TestAnalyzer_ScoreBounds(t *testing.T) {
	analyzer := KeywordAnalyzer{}

	long := strings.Repeat("I understand. I acknowledge. I agree. I consent. ", 50)
	if score := analyzer.AnalyzeFrictionResponse(long, ""); score > 1.0 {
		t.Errorf("score must cap at 1.0, got %f", score)
	}
}

func TestAnalyzer_VerificationIntent(t *testing.T) {
	analyzer := KeywordAnalyzer{}

	if !analyzer.DetectVerificationIntent("Can you provide a source for that?") {
		t.Error("expected verification intent")
	}
	if !analyzer.DetectVerificationIntent("I'd like to verify this information") {
		t.Error("expected verification intent")
	}
	if analyzer.DetectVerificationIntent("Thanks for the help!") {
		t.Error("unexpected verification intent")
	}
}

func TestAnalyzer_CorrectionIntent(t *testing.T) {
	analyzer := KeywordAnalyzer{}

	if !analyzer.DetectCorrectionIntent("That's incorrect, the actual answer is...") {
		t.Error("expected correction intent")
	}
	if !analyzer.DetectCorrectionIntent("I need to clarify something") {
		t.Error("expected correction intent")
	}
	if analyzer.DetectCorrectionIntent("That was helpful, thanks!") {
		t.Error("unexpected correction intent")
	}
}

func hasIndicator(indicators []string, substr string) bool {
	for _, ind := range indicators {
		if strings.Contains(ind, substr) {
			return true
		}
	}
	return false
}
