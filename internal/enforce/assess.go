package enforce

import "github.com/resolute-ai/rampart/internal/detect"

// baselineConfidence applies when no caveat-bearing topic matched.
const baselineConfidence = 0.8

// caveatTable is evaluated in this order. Each matching topic appends its
// caveat and overwrites the running confidence with its constant, so the
// last matching entry's confidence wins (financial over legal over medical).
// Overwrite-not-combine is the contract here; do not average.
var caveatTable = []struct {
	topic      detect.Topic
	caveat     string
	confidence float64
}{
	{detect.TopicMedical, "This is not medical advice. Consult a healthcare professional.", 0.5},
	{detect.TopicLegal, "This is not legal advice. Consult a qualified attorney.", 0.5},
	{detect.TopicFinancial, "This is not financial advice. Consult a licensed advisor.", 0.6},
}

// Assess derives the confidence value and caveat list for a generated
// response from the detected topics.
func Assess(topics []detect.Topic) (float64, []string) {
	confidence := baselineConfidence
	var caveats []string

	for _, entry := range caveatTable {
		for _, t := range topics {
			if t == entry.topic {
				caveats = append(caveats, entry.caveat)
				confidence = entry.confidence
				break
			}
		}
	}

	return confidence, caveats
}
