package detect

// Built-in topic phrase tables. A topic is reported when any one of its
// patterns matches; evaluation stops at the first hit per topic.
var builtinTopicPatterns = map[Topic][]string{
	TopicMedical: {
		`\b(diagnosis|treatment|medication|symptom|drug|dosage)\b`,
		`\b(doctor|physician|prescription|medical advice)\b`,
	},
	TopicLegal: {
		`\b(lawsuit|legal advice|attorney|sue|liability)\b`,
		`\b(contract|court|prosecution|defendant)\b`,
	},
	TopicFinancial: {
		`\b(invest|stock|trade|portfolio|financial advice)\b`,
		`\b(tax|retirement|401k|ira|mortgage)\b`,
	},
	TopicCrisis: {
		`\b(suicide|self.?harm|kill myself|end my life)\b`,
		`\b(abuse|violence|assault|threat)\b`,
	},
}

// DetectTopics returns the topics with at least one pattern match, in fixed
// declaration order (medical, legal, financial, crisis).
func (b *Bank) DetectTopics(message string) []Topic {
	var detected []Topic
	for _, tp := range b.topics {
		for _, re := range tp.patterns {
			if re.MatchString(message) {
				detected = append(detected, tp.topic)
				break
			}
		}
	}
	return detected
}
