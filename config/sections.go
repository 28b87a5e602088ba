package config

import (
	"fmt"

	"github.com/evsched/evsched/core/device"
)

// UnitsConfig selects display and command units.
type UnitsConfig struct {
	// Temperature is "C" or "F".
	Temperature string `json:"temperature"`
}

// SetDefaults applies sane defaults.
func (c *UnitsConfig) SetDefaults() {
	if c.Temperature == "" {
		c.Temperature = string(device.UnitCelsius)
	}
}

// Validate checks mandatory fields.
func (c UnitsConfig) Validate() error {
	if c.Temperature != string(device.UnitCelsius) && c.Temperature != string(device.UnitFahrenheit) {
		return fmt.Errorf("units: unknown temperature unit %q", c.Temperature)
	}
	return nil
}

// TempUnit returns the configured unit as the device type.
func (c UnitsConfig) TempUnit() device.TempUnit { return device.TempUnit(c.Temperature) }

// NotificationConfig names where user notifications go.
type NotificationConfig struct {
	// Address is the default recipient used when a message names none.
	Address string `json:"address"`
}

// LoggingConfig defines settings for the activity log store.
type LoggingConfig struct {
	// Path is the file location of the JSONL activity store.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "activity.log"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("logging: path is required")
	}
	return nil
}

// APIConfig configures the HTTP read surface.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
	Token   string `json:"token"`
}
