package model

// DefaultMinChargeThreshold is the battery percentage below which gated
// commands are denied when the minimum-charge check is enabled.
const DefaultMinChargeThreshold = 25

// PolicyConfig holds the safety thresholds consulted before a gated command
// runs. It is loaded from configuration once per invocation and never mutated
// by the engine.
type PolicyConfig struct {
	RequireMinCharge   bool `json:"require_min_charge"`
	MinChargeThreshold int  `json:"min_charge_threshold"`
	RequirePluggedIn   bool `json:"require_plugged_in"`

	// SafeModeCommands is the set of commands subject to the checks above.
	// All other commands are unconditionally safe.
	SafeModeCommands []Command `json:"-"`
}

// DefaultPolicy returns a policy with the reference safe-mode set and
// threshold. Both checks start disabled.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		MinChargeThreshold: DefaultMinChargeThreshold,
		SafeModeCommands:   []Command{CommandHVACOn},
	}
}

// RequiresSafeMode reports whether the command is subject to safety gating.
func (p PolicyConfig) RequiresSafeMode(c Command) bool {
	for _, sc := range p.SafeModeCommands {
		if sc == c {
			return true
		}
	}
	return false
}
