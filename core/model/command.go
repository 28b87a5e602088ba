package model

import "fmt"

// Command identifies a scheduled vehicle operation.
type Command int

const (
	CommandChargeSet Command = iota
	CommandChargeOn
	CommandChargeOff
	CommandHVACOn
	CommandHVACOff
	CommandAwake
	CommandSleep
	CommandUnplugged
	CommandMessage
)

// String returns a human-readable representation of the command.
func (c Command) String() string {
	switch c {
	case CommandChargeSet:
		return "Charge: Set"
	case CommandChargeOn:
		return "Charge: On"
	case CommandChargeOff:
		return "Charge: Off"
	case CommandHVACOn:
		return "HVAC: On"
	case CommandHVACOff:
		return "HVAC: Off"
	case CommandAwake:
		return "Awake"
	case CommandSleep:
		return "Sleep"
	case CommandUnplugged:
		return "Unplugged?"
	case CommandMessage:
		return "Message"
	default:
		return "unknown"
	}
}

// Name returns the display name used in activity entries. The numeric value is
// appended with one decimal place when it is meaningful for the command.
func (c Command) Name(value float64) string {
	if value > 0 {
		return fmt.Sprintf("%s (%3.1f)", c.String(), value)
	}
	return c.String()
}

// TakesValue reports whether the numeric parameter is meaningful for the
// command. It is interpreted as a percent for charge commands and as a
// temperature for HVAC: On; it is ignored for everything else.
func (c Command) TakesValue() bool {
	switch c {
	case CommandChargeSet, CommandChargeOn, CommandHVACOn:
		return true
	default:
		return false
	}
}

// CommandFromString parses a configuration name into a Command.
func CommandFromString(s string) (Command, bool) {
	switch s {
	case "charge_set":
		return CommandChargeSet, true
	case "charge_on":
		return CommandChargeOn, true
	case "charge_off":
		return CommandChargeOff, true
	case "hvac_on":
		return CommandHVACOn, true
	case "hvac_off":
		return CommandHVACOff, true
	case "awake":
		return CommandAwake, true
	case "sleep":
		return CommandSleep, true
	case "unplugged":
		return CommandUnplugged, true
	case "message":
		return CommandMessage, true
	default:
		return 0, false
	}
}
