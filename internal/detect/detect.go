// Package detect implements the stateless detector bank: prompt injection
// detection, PII redaction, and sensitive-topic classification. All patterns
// are compiled once at construction — never during a request.
package detect

import (
	"fmt"
	"regexp"
	"strings"
)

// Topic classifies a message into a sensitive-topic category.
type Topic int

const (
	TopicUnspecified Topic = iota
	TopicMedical
	TopicLegal
	TopicFinancial
	TopicCrisis
)

// topicOrder fixes the evaluation and reporting order of topics. The first
// matched topic in this order is the primary topic used downstream.
var topicOrder = []Topic{TopicMedical, TopicLegal, TopicFinancial, TopicCrisis}

// String returns the lowercase topic name.
func (t Topic) String() string {
	switch t {
	case TopicMedical:
		return "medical"
	case TopicLegal:
		return "legal"
	case TopicFinancial:
		return "financial"
	case TopicCrisis:
		return "crisis"
	default:
		return "unspecified"
	}
}

// ParseTopic maps a topic name to its Topic value.
func ParseTopic(s string) (Topic, error) {
	switch strings.ToLower(s) {
	case "medical":
		return TopicMedical, nil
	case "legal":
		return TopicLegal, nil
	case "financial":
		return TopicFinancial, nil
	case "crisis":
		return TopicCrisis, nil
	default:
		return TopicUnspecified, fmt.Errorf("ParseTopic: unknown topic %q", s)
	}
}

// PIICategory identifies the kind of PII a redaction pattern covers.
type PIICategory int

const (
	PIIEmail PIICategory = iota
	PIIPhone
	PIISSN
	PIICreditCard
	PIIIPAddress
)

// String returns the lowercase category name.
func (c PIICategory) String() string {
	switch c {
	case PIIEmail:
		return "email"
	case PIIPhone:
		return "phone"
	case PIISSN:
		return "ssn"
	case PIICreditCard:
		return "credit_card"
	case PIIIPAddress:
		return "ip_address"
	default:
		return "unspecified"
	}
}

// Tag returns the replacement marker written into redacted text,
// e.g. "[EMAIL_REDACTED]".
func (c PIICategory) Tag() string {
	return "[" + strings.ToUpper(c.String()) + "_REDACTED]"
}

// Result is the combined output of one detector-bank pass.
type Result struct {
	// Topics lists matched topics in fixed declaration order
	// (medical, legal, financial, crisis). Empty when nothing matched.
	Topics []Topic

	// InjectionDetected is true when the raw message matched a known
	// manipulation phrasing.
	InjectionDetected bool

	// Redacted is the message with PII replaced by category tags.
	// Equal to the input when redaction is disabled or nothing matched.
	Redacted string

	// RedactionCounts holds per-category match counts; RedactionCount is
	// their sum.
	RedactionCounts map[PIICategory]int
	RedactionCount  int
}

// PrimaryTopic returns the first detected topic, or TopicUnspecified.
func (r *Result) PrimaryTopic() Topic {
	if len(r.Topics) == 0 {
		return TopicUnspecified
	}
	return r.Topics[0]
}

// HasTopic reports whether the given topic was detected.
func (r *Result) HasTopic(t Topic) bool {
	for _, dt := range r.Topics {
		if dt == t {
			return true
		}
	}
	return false
}

// Config extends the built-in pattern tables. Extra patterns are appended
// after the built-ins; built-in tables and their order are never altered.
type Config struct {
	ExtraInjectionPatterns []string
	ExtraTopicPatterns     map[Topic][]string
}

// Bank holds the compiled pattern tables for all three detectors.
type Bank struct {
	injection []*regexp.Regexp
	pii       []piiPattern
	topics    []topicPatterns
}

type topicPatterns struct {
	topic    Topic
	patterns []*regexp.Regexp
}

// NewBank compiles all detection patterns. Returns an error if any extra
// pattern from cfg fails to compile; built-in patterns are compile-time
// constants and cannot fail.
func NewBank(cfg Config) (*Bank, error) {
	b := &Bank{
		injection: compileAll(injectionPatterns),
		pii:       compilePII(),
	}

	for _, p := range cfg.ExtraInjectionPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("NewBank: injection pattern %q: %w", p, err)
		}
		b.injection = append(b.injection, re)
	}

	for _, topic := range topicOrder {
		tp := topicPatterns{topic: topic, patterns: compileAll(builtinTopicPatterns[topic])}
		for _, p := range cfg.ExtraTopicPatterns[topic] {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("NewBank: topic %s pattern %q: %w", topic, p, err)
			}
			tp.patterns = append(tp.patterns, re)
		}
		b.topics = append(b.topics, tp)
	}

	return b, nil
}

func compileAll(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile("(?i)" + p)
	}
	return res
}

// Inspect runs injection detection on the raw message, then PII redaction,
// then topic classification over the redacted text. Topic classification is
// skipped when the message is an injection attempt — the pipeline rejects
// those before any further processing.
func (b *Bank) Inspect(message string, redactPII bool) *Result {
	res := &Result{
		Redacted:        message,
		RedactionCounts: map[PIICategory]int{},
	}

	if b.DetectInjection(message) {
		res.InjectionDetected = true
		return res
	}

	if redactPII {
		res.Redacted, res.RedactionCounts = b.RedactPII(message)
		for _, n := range res.RedactionCounts {
			res.RedactionCount += n
		}
	}

	res.Topics = b.DetectTopics(res.Redacted)
	return res
}
