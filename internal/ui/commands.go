package ui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mrocha/chatterm/internal/logger"
	"github.com/mrocha/chatterm/internal/transport"
	"github.com/mrocha/chatterm/pkg/wire"
)

// Async results come back into Update as typed messages, so all state
// mutation stays on the single event loop.

type loginResultMsg struct {
	token string
	email string
	err   error
}

type conversationsMsg struct {
	conversations []wire.Conversation
	err           error
}

type historyMsg struct {
	generation int
	messages   []wire.Message
	err        error
}

type inboundMsg struct {
	message wire.Message
}

type connectedMsg struct {
	err error
}

type transportClosedMsg struct{}

type acksDoneMsg struct {
	attempted int
}

func (m *Model) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		token, err := m.api.Login(context.Background(), email, password)
		return loginResultMsg{token: token, email: email, err: err}
	}
}

func (m *Model) conversationsCmd() tea.Cmd {
	return func() tea.Msg {
		convs, err := m.api.Conversations(context.Background())
		return conversationsMsg{conversations: convs, err: err}
	}
}

// historyCmd carries the selection generation so a result for a
// conversation the user has left gets discarded in Update.
func (m *Model) historyCmd(generation int, user1, user2 string) tea.Cmd {
	return func() tea.Msg {
		msgs, err := m.api.History(context.Background(), user1, user2)
		return historyMsg{generation: generation, messages: msgs, err: err}
	}
}

// connectCmd establishes the real-time connection off the event loop.
func connectCmd(adapter *transport.Adapter) tea.Cmd {
	return func() tea.Msg {
		return connectedMsg{err: adapter.Connect()}
	}
}

// waitForEvent blocks on the adapter's event channel and feeds one
// inbound message back into the loop; Update re-issues it after every
// event.
func waitForEvent(adapter *transport.Adapter) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-adapter.Events()
		if !ok {
			return transportClosedMsg{}
		}
		return inboundMsg{message: msg}
	}
}

// ackCmd issues the claimed read acknowledgements concurrently;
// failures are logged and never retried.
func (m *Model) ackCmd(ids []string) tea.Cmd {
	client := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if err := client.MarkRead(ctx, id); err != nil {
					logger.Log.Warn("read acknowledgement failed", "message_id", id, "error", err)
				}
			}(id)
		}
		wg.Wait()

		return acksDoneMsg{attempted: len(ids)}
	}
}
