package model

// MessageTarget addresses a notification for the Message command. The engine
// does not interpret the templates beyond handing them to the renderer.
type MessageTarget struct {
	Address         string `json:"address"`
	SubjectTemplate string `json:"subject_template"`
	BodyTemplate    string `json:"body_template"`
}
