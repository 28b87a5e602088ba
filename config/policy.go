package config

import (
	"fmt"

	"github.com/evsched/evsched/core/model"
)

// PolicyConfig carries the safety gate settings in their configuration form.
// Commands are named the way schedule items name them (charge_on, hvac_on...).
type PolicyConfig struct {
	RequireMinCharge   bool     `json:"require_min_charge"`
	MinChargeThreshold int      `json:"min_charge_threshold"`
	RequirePluggedIn   bool     `json:"require_plugged_in"`
	SafeModeCommands   []string `json:"safe_mode_commands"`
}

// SetDefaults applies the reference threshold and safe-mode set.
func (c *PolicyConfig) SetDefaults() {
	if c.MinChargeThreshold == 0 {
		c.MinChargeThreshold = model.DefaultMinChargeThreshold
	}
	if len(c.SafeModeCommands) == 0 {
		c.SafeModeCommands = []string{"hvac_on"}
	}
}

// Validate checks that every safe-mode entry names a real command.
func (c PolicyConfig) Validate() error {
	for _, s := range c.SafeModeCommands {
		if _, ok := model.CommandFromString(s); !ok {
			return fmt.Errorf("policy: unknown safe-mode command %q", s)
		}
	}
	if c.MinChargeThreshold < 0 || c.MinChargeThreshold > 100 {
		return fmt.Errorf("policy: min_charge_threshold out of range: %d", c.MinChargeThreshold)
	}
	return nil
}

// Policy converts the section into the engine's policy type.
func (c PolicyConfig) Policy() model.PolicyConfig {
	p := model.PolicyConfig{
		RequireMinCharge:   c.RequireMinCharge,
		MinChargeThreshold: c.MinChargeThreshold,
		RequirePluggedIn:   c.RequirePluggedIn,
	}
	for _, s := range c.SafeModeCommands {
		if cmd, ok := model.CommandFromString(s); ok {
			p.SafeModeCommands = append(p.SafeModeCommands, cmd)
		}
	}
	return p
}
