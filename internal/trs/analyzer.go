package trs

import (
	"math"
	"strings"
)

// Analyzer scores the textual quality of a friction response in [0,1].
type Analyzer interface {
	AnalyzeFrictionResponse(response, prompt string) float64
}

// Keywords signalling engaged acknowledgment.
var qualityKeywords = []string{
	"understand", "acknowledge", "aware", "recognize",
	"confirm", "agree", "consent", "accept",
	"verify", "check", "validate",
}

// Keywords signalling verification behavior in a raw message.
var verificationKeywords = []string{
	"source", "citation", "reference", "evidence",
	"proof", "documentation", "verify", "fact-check",
}

// Keywords signalling correction behavior in a raw message.
var correctionKeywords = []string{
	"incorrect", "wrong", "error", "mistake",
	"actually", "correction", "clarify", "fix",
}

// KeywordAnalyzer is the default heuristic analyzer: response length,
// quality-keyword presence, and sentence structure, each capped and
// weighted.
type KeywordAnalyzer struct{}

// AnalyzeFrictionResponse scores a friction response:
// length (cap 200 chars) weighted 0.3, quality keywords (0.2 each, cap 1)
// weighted 0.4, terminal punctuation (0.25 each, cap 1) weighted 0.3.
func (KeywordAnalyzer) AnalyzeFrictionResponse(response, _ string) float64 {
	if response == "" {
		return 0.0
	}
	lower := strings.ToLower(response)

	score := math.Min(1.0, float64(len(response))/200) * 0.3

	quality := 0
	for _, kw := range qualityKeywords {
		if strings.Contains(lower, kw) {
			quality++
		}
	}
	score += math.Min(1.0, float64(quality)*0.2) * 0.4

	sentences := strings.Count(response, ".") +
		strings.Count(response, "!") +
		strings.Count(response, "?")
	score += math.Min(1.0, float64(sentences)*0.25) * 0.3

	return math.Min(1.0, score)
}

// DetectVerificationIntent reports whether a raw message indicates
// verification behavior. Used by callers to derive the verification-count
// input; never invoked by Calculate itself.
func (KeywordAnalyzer) DetectVerificationIntent(message string) bool {
	return containsAny(message, verificationKeywords)
}

// DetectCorrectionIntent reports whether a raw message indicates correction
// behavior.
func (KeywordAnalyzer) DetectCorrectionIntent(message string) bool {
	return containsAny(message, correctionKeywords)
}

func containsAny(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
