package enforce

import "github.com/resolute-ai/rampart/internal/detect"

// defaultFrictionPrompt is shown when no topic-specific prompt exists.
const defaultFrictionPrompt = "Please acknowledge you understand AI limitations."

// builtinFrictionPrompts are the acknowledgment checkpoints per topic.
var builtinFrictionPrompts = map[detect.Topic]string{
	detect.TopicMedical: "Before I provide health-related information, I need you to acknowledge: " +
		"I am an AI and cannot provide medical diagnoses or replace professional " +
		"medical advice. What is your understanding of AI limitations in healthcare?",
	detect.TopicLegal: "Before proceeding with legal topics, please acknowledge: I am not a lawyer " +
		"and this is not legal advice. You should consult a qualified attorney for " +
		"specific legal matters. Do you understand these limitations?",
	detect.TopicFinancial: "Before discussing financial matters, please confirm: I am not a licensed " +
		"financial advisor. Any information I provide is educational, not investment " +
		"advice. What is your understanding of these limitations?",
	detect.TopicCrisis: "I notice your message may involve a crisis situation. Before we continue, " +
		"please know that if you're in immediate danger, please contact emergency " +
		"services (911) or a crisis helpline. Are you safe right now?",
}

// frictionPrompt returns the checkpoint text for a topic, honoring overrides.
func (e *Enforcer) frictionPrompt(topic detect.Topic) string {
	if p, ok := e.prompts[topic]; ok && p != "" {
		return p
	}
	if p, ok := builtinFrictionPrompts[topic]; ok {
		return p
	}
	return defaultFrictionPrompt
}
