package engine

import (
	"github.com/evsched/evsched/core/device"
	"github.com/evsched/evsched/core/model"
)

// Preferences provides the read-only settings consulted once per invocation.
// Implementations back this with the persistent preferences store.
type Preferences interface {
	Policy() model.PolicyConfig
	TemperatureUnit() device.TempUnit
	NotificationAddress() string
}

// StaticPreferences is a fixed-value Preferences implementation, used when
// settings come from a configuration file loaded at startup.
type StaticPreferences struct {
	PolicyConfig model.PolicyConfig
	Unit         device.TempUnit
	Address      string
}

func (p StaticPreferences) Policy() model.PolicyConfig { return p.PolicyConfig }

func (p StaticPreferences) TemperatureUnit() device.TempUnit {
	if p.Unit == "" {
		return device.UnitCelsius
	}
	return p.Unit
}

func (p StaticPreferences) NotificationAddress() string { return p.Address }
