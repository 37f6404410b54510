package domain

import "time"

const (
	// SenderServer is the sender field of system-generated notices.
	SenderServer = "SERVER"
	// ServerColor is the sentinel color of system-generated notices.
	ServerColor = "#000000"

	// TimeLayout is the timestamp format of outbound envelopes. The server
	// clock is authoritative; client timestamps are echoed nowhere.
	TimeLayout = "2006-01-02 15:04:05"
)

// Envelope is one outbound wire message before serialization:
// sender|color|timestamp|TYPE|payload.
type Envelope struct {
	Sender    string
	Color     string
	Timestamp string
	Type      MessageType
	Payload   string
}

// ServerNotice builds a system-originated envelope (INFO or ERROR).
func ServerNotice(at time.Time, typ MessageType, payload string) Envelope {
	return Envelope{
		Sender:    SenderServer,
		Color:     ServerColor,
		Timestamp: at.Format(TimeLayout),
		Type:      typ,
		Payload:   payload,
	}
}

// UserMessage builds an envelope originating from an authenticated user.
func UserMessage(sender, color string, at time.Time, typ MessageType, payload string) Envelope {
	return Envelope{
		Sender:    sender,
		Color:     color,
		Timestamp: at.Format(TimeLayout),
		Type:      typ,
		Payload:   payload,
	}
}
