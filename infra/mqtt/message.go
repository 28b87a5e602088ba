package mqtt

// commandMessage is the wire form of one device call.
type commandMessage struct {
	CommandID string  `json:"command_id"`
	Action    string  `json:"action"`
	Percent   int     `json:"percent,omitempty"`
	LowTemp   float64 `json:"low_temp,omitempty"`
	HighTemp  float64 `json:"high_temp,omitempty"`
	Unit      string  `json:"unit,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// resultMessage is published by the vehicle in response to a command.
type resultMessage struct {
	CommandID   string `json:"command_id"`
	Success     bool   `json:"success"`
	Explanation string `json:"explanation,omitempty"`
}

// stateMessage is published by the vehicle in response to a state request.
type stateMessage struct {
	CommandID      string  `json:"command_id"`
	Valid          bool    `json:"valid"`
	BatteryPercent int     `json:"battery_percent"`
	Range          float64 `json:"range"`
	PilotCurrent   int     `json:"pilot_current"`
}
