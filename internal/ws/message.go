package ws

import (
	"time"

	"github.com/dmayorov/magnetophon/internal/event"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	// MessageRecord carries the audit record of one processed interval.
	MessageRecord MessageType = "activity.record"
	// MessageTriggered announces the start of an anomaly excursion.
	MessageTriggered MessageType = "anomaly.triggered"
	// MessageRearmed announces that the signal fell back inside the
	// release band and the trigger re-armed.
	MessageRearmed MessageType = "anomaly.rearmed"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// typeForTopic maps bus topics onto wire message types.
func typeForTopic(topic string) (MessageType, bool) {
	switch topic {
	case event.TopicRecord:
		return MessageRecord, true
	case event.TopicTriggered:
		return MessageTriggered, true
	case event.TopicRearmed:
		return MessageRearmed, true
	default:
		return "", false
	}
}
