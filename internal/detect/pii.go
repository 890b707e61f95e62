package detect

import "regexp"

type piiPattern struct {
	category PIICategory
	re       *regexp.Regexp
}

// PII patterns, evaluated in fixed category order. Each category runs against
// the text already redacted by earlier categories, so the shapes must be
// disjoint: no category may match a substring another category has already
// replaced. TestRedactPII_CategoriesDisjoint asserts this for every
// category's canonical samples.
func compilePII() []piiPattern {
	return []piiPattern{
		{PIIEmail, regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`)},
		{PIIPhone, regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
		{PIISSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
		{PIICreditCard, regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)},
		{PIIIPAddress, regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)},
	}
}

// RedactPII replaces every PII match in message with its category tag and
// returns the redacted text plus per-category match counts. Categories with
// zero matches are absent from the map.
func (b *Bank) RedactPII(message string) (string, map[PIICategory]int) {
	redacted := message
	counts := map[PIICategory]int{}

	for _, p := range b.pii {
		matches := p.re.FindAllStringIndex(redacted, -1)
		if len(matches) == 0 {
			continue
		}
		counts[p.category] += len(matches)
		redacted = p.re.ReplaceAllString(redacted, p.category.Tag())
	}

	return redacted, counts
}
