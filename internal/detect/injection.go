package detect

// Known manipulation phrasings. Presence of any single match rejects the
// message; match order and count are irrelevant.
var injectionPatterns = []string{
	`ignore\s+(all\s+)?(previous|above)\s+instructions`,
	`ignore\s+all\s+instructions`,
	`disregard\s+(all\s+)?(your|the|previous|prior|above)\s+(rules|guidelines|instructions)`,
	`\byou\s+are\s+now\b`,
	`\bnew\s+persona\b`,
	`\bjailbreak\b`,
	`\bdan\s+mode\b`,
}

// DetectInjection reports whether the message matches any known prompt
// manipulation phrasing. Case-insensitive; returns on the first match.
func (b *Bank) DetectInjection(message string) bool {
	for _, re := range b.injection {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}
