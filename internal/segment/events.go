package segment

// Result indicates the terminal outcome of a recording session
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// EventType identifies a segmentation event
type EventType string

const (
	EventStarted EventType = "started"
	EventSpeech  EventType = "speech"
	EventSilence EventType = "silence"
	EventStopped EventType = "stopped"
	EventTimeout EventType = "timeout"
)

// Event is a timestamped segmentation event. Events are appended in
// processing order; together they reconstruct the session timeline.
type Event struct {
	Type EventType `json:"type"`
	Time float64   `json:"time"` // seconds since session start
}

// VoiceCommand is the terminal result of one recording session. On
// success AudioData holds the pre-roll audio followed by the phrase
// audio, in chronological order.
type VoiceCommand struct {
	Result    Result  `json:"result"`
	AudioData []byte  `json:"-"`
	Events    []Event `json:"events"`
}
