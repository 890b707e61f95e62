// Package rules loads detection rule overlays from a YAML file. The file
// can add injection patterns, add topic patterns, and override the friction
// prompt shown for a topic. Built-in rules always stay active; a rules file
// only extends them.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/resolute-ai/rampart/internal/detect"
)

// File is the top-level rules document.
type File struct {
	Injection InjectionRules `yaml:"injection"`
	Topics    []TopicRule    `yaml:"topics"`
}

// InjectionRules extends the injection detector.
type InjectionRules struct {
	ExtraPatterns []string `yaml:"extra_patterns"`
}

// TopicRule extends one topic detector and optionally replaces its
// friction prompt.
type TopicRule struct {
	Name           string   `yaml:"name"`
	ExtraPatterns  []string `yaml:"extra_patterns"`
	FrictionPrompt string   `yaml:"friction_prompt"`
}

// Load reads and validates a rules file. Topic names must match a known
// topic; pattern syntax is validated later when the detector bank compiles.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("Load: parse %s: %w", path, err)
	}

	for _, tr := range f.Topics {
		if _, err := detect.ParseTopic(tr.Name); err != nil {
			return nil, fmt.Errorf("Load: %s: %w", path, err)
		}
	}
	return &f, nil
}

// DetectConfig converts the rules file into detector bank configuration.
func (f *File) DetectConfig() detect.Config {
	cfg := detect.Config{
		ExtraInjectionPatterns: f.Injection.ExtraPatterns,
	}
	for _, tr := range f.Topics {
		if len(tr.ExtraPatterns) == 0 {
			continue
		}
		topic, err := detect.ParseTopic(tr.Name)
		if err != nil {
			continue // validated in Load
		}
		if cfg.ExtraTopicPatterns == nil {
			cfg.ExtraTopicPatterns = make(map[detect.Topic][]string)
		}
		cfg.ExtraTopicPatterns[topic] = append(cfg.ExtraTopicPatterns[topic], tr.ExtraPatterns...)
	}
	return cfg
}

// FrictionPrompts returns per-topic prompt overrides from the rules file.
func (f *File) FrictionPrompts() map[detect.Topic]string {
	prompts := make(map[detect.Topic]string)
	for _, tr := range f.Topics {
		if tr.FrictionPrompt == "" {
			continue
		}
		topic, err := detect.ParseTopic(tr.Name)
		if err != nil {
			continue
		}
		prompts[topic] = tr.FrictionPrompt
	}
	return prompts
}
