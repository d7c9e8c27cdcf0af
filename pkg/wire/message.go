// Package wire defines the data model shared with the chat backend and
// the JSON codec for it. Both the REST surface and the broker frames
// carry these shapes.
package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// Frame operations understood by the broker.
const (
	OpSubscribe = "subscribe"
	OpPublish   = "publish"
	OpMessage   = "message"
)

// Message represents one chat message. An empty ID marks a
// locally-originated message the backend has not acknowledged yet;
// such a message cannot be read-acknowledged until the backend echoes
// it back with an ID assigned.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read,omitempty"`

	// LocalKey identifies an optimistic entry before the backend
	// assigns an ID. Never sent on the wire.
	LocalKey string `json:"-"`
}

// Encode encodes the message into its wire representation.
func (m *Message) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return data, nil
}

// Decode decodes wire bytes into the message.
func (m *Message) Decode(data []byte) error {
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	return nil
}

// Confirmed reports whether the backend has assigned this message an ID.
func (m *Message) Confirmed() bool {
	return m.ID != ""
}

// Conversation is a directory-level summary of one two-party exchange.
// Participants has exactly two entries in the order the backend
// returned them; membership checks are order-independent.
type Conversation struct {
	ID              string     `json:"id"`
	Participants    []string   `json:"participants"`
	LastMessage     string     `json:"lastMessage,omitempty"`
	LastMessageTime *time.Time `json:"lastMessageTime,omitempty"`
	UnreadCount     int        `json:"unreadCount"`
}

// Has reports whether handle is one of the conversation's participants.
func (c *Conversation) Has(handle string) bool {
	for _, p := range c.Participants {
		if p == handle {
			return true
		}
	}
	return false
}

// Matches reports whether the participant set equals {sender, receiver},
// ignoring order. A message between these two handles belongs to this
// conversation.
func (c *Conversation) Matches(sender, receiver string) bool {
	if len(c.Participants) != 2 || sender == receiver {
		return false
	}
	return c.Has(sender) && c.Has(receiver)
}

// Other returns the participant that is not self, or "" if self is not
// a participant.
func (c *Conversation) Other(self string) string {
	for _, p := range c.Participants {
		if p != self {
			return p
		}
	}
	return ""
}

// Frame is the broker's envelope. Subscribe frames carry a topic,
// publish frames a destination topic plus a message body, and inbound
// message frames a message body.
type Frame struct {
	Op    string          `json:"op"`
	Topic string          `json:"topic,omitempty"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// Encode encodes the frame into its wire representation.
func (f *Frame) Encode() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return data, nil
}

// Decode decodes wire bytes into the frame.
func (f *Frame) Decode(data []byte) error {
	if err := json.Unmarshal(data, f); err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	return nil
}

// SubscribeFrame builds the subscribe frame for topic.
func SubscribeFrame(topic string) Frame {
	return Frame{Op: OpSubscribe, Topic: topic}
}

// PublishFrame builds a publish frame carrying msg for topic.
func PublishFrame(topic string, msg *Message) (Frame, error) {
	body, err := msg.Encode()
	if err != nil {
		return Frame{}, err
	}
	return Frame{Op: OpPublish, Topic: topic, Body: body}, nil
}

// UserTopic returns the per-user subscription topic for handle.
func UserTopic(handle string) string {
	return "user." + handle
}

// PublishTopic is the shared inbound destination messages are sent to.
const PublishTopic = "chat"
