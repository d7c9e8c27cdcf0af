// Package state holds the client-side chat state: the conversation
// directory, the open message thread and the read-acknowledgement
// bookkeeping. All mutation happens on the UI event loop, one event at
// a time, so the types here are deliberately unsynchronized.
package state

import (
	"github.com/mrocha/chatterm/pkg/wire"
)

// Directory is the ordered collection of conversation summaries. The
// order the backend returned is preserved; merges never reorder.
type Directory struct {
	conversations []wire.Conversation
	selected      string
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{}
}

// Replace swaps in a freshly-loaded conversation list. The current
// selection is kept if the new list still contains it; its unread
// count is re-zeroed since the user is looking at it.
func (d *Directory) Replace(conversations []wire.Conversation) {
	d.conversations = conversations
	if d.selected != "" {
		if c := d.byID(d.selected); c != nil {
			c.UnreadCount = 0
		} else {
			d.selected = ""
		}
	}
}

// Apply merges one inbound message into the matching summary: the
// preview fields take the message's content and timestamp, and the
// unread count grows by one unless the conversation is the selected
// one. It reports whether a summary matched; an unmatched message
// means the directory is missing a conversation and should be
// reloaded.
func (d *Directory) Apply(msg wire.Message) bool {
	for i := range d.conversations {
		c := &d.conversations[i]
		if !c.Matches(msg.Sender, msg.Receiver) {
			continue
		}

		c.LastMessage = msg.Content
		ts := msg.Timestamp
		c.LastMessageTime = &ts
		if c.ID != d.selected {
			c.UnreadCount++
		}
		return true
	}
	return false
}

// Select marks the conversation as the active one and resets its
// unread count to zero, whatever it was.
func (d *Directory) Select(id string) *wire.Conversation {
	c := d.byID(id)
	if c == nil {
		return nil
	}
	d.selected = id
	c.UnreadCount = 0
	return c
}

// Deselect clears the active conversation (logout, navigation away).
func (d *Directory) Deselect() {
	d.selected = ""
}

// Selected returns the active conversation, or nil when none is.
func (d *Directory) Selected() *wire.Conversation {
	if d.selected == "" {
		return nil
	}
	return d.byID(d.selected)
}

// List returns the summaries in backend order. The slice is shared;
// callers must not mutate it.
func (d *Directory) List() []wire.Conversation {
	return d.conversations
}

// Len returns the number of conversations.
func (d *Directory) Len() int {
	return len(d.conversations)
}

func (d *Directory) byID(id string) *wire.Conversation {
	for i := range d.conversations {
		if d.conversations[i].ID == id {
			return &d.conversations[i]
		}
	}
	return nil
}

// TotalUnread sums unread counts across all conversations.
func (d *Directory) TotalUnread() int {
	total := 0
	for i := range d.conversations {
		total += d.conversations[i].UnreadCount
	}
	return total
}
