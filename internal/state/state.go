package state

import (
	"context"
	"time"

	"github.com/mrocha/chatterm/pkg/wire"
)

// State aggregates the directory, the open thread and the read
// reconciler behind the operations the UI drives. It is the single
// entry point for merging events, so the merge rules stay in one
// place.
type State struct {
	Self      string
	Directory *Directory
	Thread    *Thread
	Marks     *Reconciler
}

// New creates the session state for self, acknowledging reads via ack.
func New(self string, ack AckFunc) *State {
	return &State{
		Self:      self,
		Directory: NewDirectory(),
		Thread:    NewThread(self),
		Marks:     NewReconciler(ack),
	}
}

// HandleInbound merges one real-time message. The thread grows only
// when the selected conversation's participant pair matches the
// message; the directory summary updates either way. The returned flag
// is true when no summary matched, meaning the caller should reload
// the directory once.
func (s *State) HandleInbound(msg wire.Message) (reload bool) {
	if c := s.Directory.Selected(); c != nil && c.Matches(msg.Sender, msg.Receiver) {
		s.Thread.Append(msg)
	}
	return !s.Directory.Apply(msg)
}

// SelectConversation makes id the active conversation: its unread
// count resets, the thread empties pending the history fetch, and the
// acknowledgement set starts over. The returned generation must
// accompany the history result; a nil conversation means id is
// unknown.
func (s *State) SelectConversation(id string) (*wire.Conversation, int) {
	c := s.Directory.Select(id)
	if c == nil {
		return nil, 0
	}
	gen := s.Thread.Begin()
	s.Marks.Reset()
	return c, gen
}

// ApplyHistory installs a fetched history if gen still names the
// current selection.
func (s *State) ApplyHistory(gen int, messages []wire.Message) bool {
	return s.Thread.ReplaceHistory(gen, messages)
}

// Send appends an optimistic entry addressed to the other participant
// of the selected conversation and returns it for publishing. ok is
// false when no conversation is selected.
func (s *State) Send(content string, now time.Time) (msg wire.Message, ok bool) {
	c := s.Directory.Selected()
	if c == nil {
		return wire.Message{}, false
	}
	receiver := c.Other(s.Self)
	if receiver == "" {
		return wire.Message{}, false
	}
	return s.Thread.AppendLocal(content, receiver, now), true
}

// MarkVisible acknowledges the currently-qualifying thread messages.
// Triggered by the user interacting with the thread surface, not by
// message arrival.
func (s *State) MarkVisible(ctx context.Context) int {
	return s.Marks.Reconcile(ctx, s.Thread.Messages(), s.Self)
}

// ClaimVisible marks the currently-qualifying thread messages as
// acknowledgement-attempted and returns their ids, leaving the actual
// calls to the caller. Used by the event loop, which must not block on
// the network.
func (s *State) ClaimVisible() []string {
	return s.Marks.Claim(s.Thread.Messages(), s.Self)
}

// Logout clears everything scoped to the session.
func (s *State) Logout() {
	s.Directory.Deselect()
	s.Directory.Replace(nil)
	s.Thread.Clear()
	s.Marks.Reset()
}
