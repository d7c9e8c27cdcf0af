package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/mrocha/chatterm/pkg/wire"
)

// echoWindow bounds how far apart an optimistic entry and its backend
// echo may be timestamped and still be treated as the same message.
const echoWindow = 30 * time.Second

// Thread is the ordered message history of the selected conversation.
// It is wholesale-replaced when the selection changes and appended to
// by live events and local sends.
type Thread struct {
	self       string
	messages   []wire.Message
	generation int
}

// NewThread creates a thread for messages seen by self.
func NewThread(self string) *Thread {
	return &Thread{self: self}
}

// Begin starts a new selection and returns its generation. Only a
// history result carrying the current generation may replace the
// thread; results from selections the user has already navigated away
// from are discarded.
func (t *Thread) Begin() int {
	t.generation++
	t.messages = nil
	return t.generation
}

// ReplaceHistory installs the fetched history if gen is still the
// current selection's generation. It reports whether the result was
// applied.
func (t *Thread) ReplaceHistory(gen int, messages []wire.Message) bool {
	if gen != t.generation {
		return false
	}
	t.messages = messages
	return true
}

// Append merges one live inbound message. A message sent by self is
// first matched against pending optimistic entries - same receiver and
// content, no id yet, timestamps within the echo window - and adopts
// the oldest match in place instead of growing the thread. Everything
// else appends.
func (t *Thread) Append(msg wire.Message) {
	if msg.Sender == t.self && msg.Confirmed() {
		for i := range t.messages {
			m := &t.messages[i]
			if m.Confirmed() || m.Sender != t.self {
				continue
			}
			if m.Receiver != msg.Receiver || m.Content != msg.Content {
				continue
			}
			if delta := msg.Timestamp.Sub(m.Timestamp); delta < -echoWindow || delta > echoWindow {
				continue
			}

			key := m.LocalKey
			*m = msg
			m.LocalKey = key
			return
		}
	}

	t.messages = append(t.messages, msg)
}

// AppendLocal appends an optimistic entry for a locally-composed
// message and returns it for publishing. The entry has no id until the
// backend echoes it back; the local key only gives the UI a stable
// identity for it.
func (t *Thread) AppendLocal(content, receiver string, now time.Time) wire.Message {
	msg := wire.Message{
		Content:   content,
		Sender:    t.self,
		Receiver:  receiver,
		Timestamp: now,
		LocalKey:  uuid.NewString(),
	}
	t.messages = append(t.messages, msg)
	return msg
}

// Clear drops the thread contents (logout).
func (t *Thread) Clear() {
	t.messages = nil
}

// Messages returns the thread in order. The slice is shared; callers
// must not mutate it.
func (t *Thread) Messages() []wire.Message {
	return t.messages
}

// Len returns the number of messages in the thread.
func (t *Thread) Len() int {
	return len(t.messages)
}
