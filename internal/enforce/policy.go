package enforce

// Switches are the per-call enforcement toggles. Disabled PII redaction
// passes text through with zero count; disabled escalation always yields
// EscalationNone; disabled friction never arms new checkpoints.
type Switches struct {
	FrictionEnabled     bool
	PIIRedactionEnabled bool
	EscalationEnabled   bool
}

// DefaultSwitches returns the all-enabled configuration.
func DefaultSwitches() Switches {
	return Switches{
		FrictionEnabled:     true,
		PIIRedactionEnabled: true,
		EscalationEnabled:   true,
	}
}

// Policy is a tenant's stored enforcement configuration. All pointer fields
// use nil to mean "use server default".
type Policy struct {
	FrictionEnabled     *bool `json:"friction_enabled"`
	PIIRedactionEnabled *bool `json:"pii_redaction_enabled"`
	EscalationEnabled   *bool `json:"escalation_enabled"`
}

// Switches resolves the policy against server defaults.
func (p *Policy) Switches(defaults Switches) Switches {
	if p == nil {
		return defaults
	}
	sw := defaults
	if p.FrictionEnabled != nil {
		sw.FrictionEnabled = *p.FrictionEnabled
	}
	if p.PIIRedactionEnabled != nil {
		sw.PIIRedactionEnabled = *p.PIIRedactionEnabled
	}
	if p.EscalationEnabled != nil {
		sw.EscalationEnabled = *p.EscalationEnabled
	}
	return sw
}
