package models

// Event types pushed to live subscribers.
const (
	EventStatusUpdate = "status_update"
	EventLog          = "log"
)

// Event is one message on the live feed.
type Event struct {
	Type string `json:"type"` // status_update | log
	Data any    `json:"data"`
}

// LogEntry is the payload of a log event.
type LogEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}
