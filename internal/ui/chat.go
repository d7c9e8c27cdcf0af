package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrocha/chatterm/internal/logger"
)

const sidebarWidth = 30

var (
	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("8"))
	sidebarHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	convStyle          = lipgloss.NewStyle().Padding(0, 1)
	convSelectedStyle  = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("12"))
	convCursorStyle    = lipgloss.NewStyle().Padding(0, 1).Reverse(true)
	badgeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	previewStyle       = lipgloss.NewStyle().Faint(true)
	threadHeaderStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	ownMsgStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	msgTimeStyle       = lipgloss.NewStyle().Faint(true)
	footerStyle        = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	noticeStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
)

func (m *Model) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleChatKey(msg)

	case connectedMsg:
		if msg.err != nil {
			// Operator-visible only; the chat surface keeps working
			// over REST while the adapter keeps retrying.
			logger.Log.Warn("realtime connection failed", "error", msg.err)
		}
		// The event channel outlives individual connections, so the
		// pump starts either way and picks up messages once a retry
		// lands.
		return m, waitForEvent(m.adapter)

	case conversationsMsg:
		m.loadingConvs = false
		if msg.err != nil {
			logger.Log.Warn("conversation load failed", "error", msg.err)
			m.setNotice("Could not load conversations.")
			return m, nil
		}
		m.st.Directory.Replace(msg.conversations)
		if m.cursor >= m.st.Directory.Len() {
			m.cursor = max(0, m.st.Directory.Len()-1)
		}
		return m, nil

	case historyMsg:
		if msg.err != nil {
			logger.Log.Warn("history load failed", "error", msg.err)
			m.setNotice("Could not load messages.")
			return m, nil
		}
		if m.st.ApplyHistory(msg.generation, msg.messages) {
			m.refreshThreadView()
			m.threadView.GotoBottom()
		}
		return m, nil

	case inboundMsg:
		reload := m.st.HandleInbound(msg.message)
		m.refreshThreadView()
		m.threadView.GotoBottom()

		cmds := []tea.Cmd{waitForEvent(m.adapter)}
		if reload {
			cmds = append(cmds, m.conversationsCmd())
		}
		return m, tea.Batch(cmds...)

	case transportClosedMsg:
		return m, nil

	case acksDoneMsg:
		logger.Log.Debug("read acknowledgements resolved", "attempted", msg.attempted)
		return m, nil
	}

	if m.focusedPane == paneThread {
		var cmd tea.Cmd
		m.composeInput, cmd = m.composeInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlL:
		m.endSession()
		return m, nil

	case tea.KeyTab:
		if m.focusedPane == paneSidebar {
			m.focusedPane = paneThread
			// Entering the thread surface is the visibility signal.
			return m, m.claimAcksCmd()
		}
		m.focusedPane = paneSidebar
		return m, nil
	}

	if m.focusedPane == paneSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleThreadKey(msg)
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < m.st.Directory.Len()-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		return m, m.selectCursorConversation()
	case tea.KeyRunes:
		if string(msg.Runes) == "q" {
			m.adapter.Close()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) handleThreadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		content := strings.TrimSpace(m.composeInput.Value())
		if content == "" {
			return m, nil
		}

		sent, ok := m.st.Send(content, time.Now())
		if !ok {
			m.setNotice("Select a conversation first.")
			return m, nil
		}
		m.composeInput.SetValue("")

		// Optimistic: the entry is already in the thread; publish is
		// fire-and-forget and drops when disconnected.
		m.adapter.Publish(&sent)
		m.refreshThreadView()
		m.threadView.GotoBottom()
		return m, nil

	case tea.KeyPgUp:
		m.threadView.HalfViewUp()
		return m, m.claimAcksCmd()

	case tea.KeyPgDown:
		m.threadView.HalfViewDown()
		return m, m.claimAcksCmd()
	}

	var cmd tea.Cmd
	m.composeInput, cmd = m.composeInput.Update(msg)
	return m, tea.Batch(cmd, m.claimAcksCmd())
}

// selectCursorConversation makes the conversation under the cursor the
// active one and kicks off its history fetch.
func (m *Model) selectCursorConversation() tea.Cmd {
	list := m.st.Directory.List()
	if m.cursor < 0 || m.cursor >= len(list) {
		return nil
	}

	conv, gen := m.st.SelectConversation(list[m.cursor].ID)
	if conv == nil {
		return nil
	}
	m.focusedPane = paneThread
	m.refreshThreadView()

	return m.historyCmd(gen, conv.Participants[0], conv.Participants[1])
}

// claimAcksCmd claims the qualifying read acknowledgements on the
// event loop and hands the network calls to a command. Nil when
// nothing qualifies.
func (m *Model) claimAcksCmd() tea.Cmd {
	if m.st == nil {
		return nil
	}
	ids := m.st.ClaimVisible()
	if len(ids) == 0 {
		return nil
	}
	return m.ackCmd(ids)
}

func (m *Model) refreshThreadView() {
	if m.st == nil {
		m.threadView.SetContent("")
		return
	}
	if m.st.Directory.Selected() == nil {
		m.threadView.SetContent("\n  Select a conversation to start chatting.")
		return
	}

	width := max(20, m.threadView.Width)
	var b strings.Builder
	for _, msg := range m.st.Thread.Messages() {
		line := fmt.Sprintf("%s %s  %s",
			initials(msg.Sender),
			msg.Content,
			msgTimeStyle.Render(formatMessageTime(msg.Timestamp)),
		)
		if msg.Sender == m.st.Self {
			if !msg.Confirmed() {
				line += msgTimeStyle.Render(" (sending)")
			}
			line = lipgloss.PlaceHorizontal(width, lipgloss.Right, ownMsgStyle.Render(line))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		b.WriteString("\n  No messages yet. Say hello!")
	}
	m.threadView.SetContent(b.String())
}

func (m *Model) chatView() string {
	sidebar := m.sidebarView()
	thread := m.threadPaneView()

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, thread)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.footerView())
}

func (m *Model) sidebarView() string {
	var b strings.Builder
	b.WriteString(sidebarHeaderStyle.Render(fmt.Sprintf("[%s] %s", initials(m.st.Self), m.st.Self)))
	b.WriteString("\n\n")

	if m.loadingConvs {
		b.WriteString(convStyle.Render(m.spin.View() + " Loading conversations..."))
	} else if m.st.Directory.Len() == 0 {
		b.WriteString(convStyle.Render("No conversations yet."))
	}

	now := time.Now()
	selected := m.st.Directory.Selected()
	for i, conv := range m.st.Directory.List() {
		other := conv.Other(m.st.Self)

		header := fitString(other, sidebarWidth-10)
		if badge := unreadBadge(conv.UnreadCount); badge != "" {
			header += " " + badgeStyle.Render("("+badge+")")
		}
		if ts := formatListTime(conv.LastMessageTime, now); ts != "" {
			header += " " + msgTimeStyle.Render(ts)
		}

		style := convStyle
		switch {
		case i == m.cursor && m.focusedPane == paneSidebar:
			style = convCursorStyle
		case selected != nil && selected.ID == conv.ID:
			style = convSelectedStyle
		}

		b.WriteString(style.Render(header))
		b.WriteString("\n")

		preview := conv.LastMessage
		if preview == "" {
			preview = "No messages yet"
		}
		b.WriteString(convStyle.Render(previewStyle.Render(fitString(preview, sidebarWidth-4))))
		b.WriteString("\n")
	}

	return sidebarStyle.Render(b.String())
}

func (m *Model) threadPaneView() string {
	header := "No conversation selected"
	if conv := m.st.Directory.Selected(); conv != nil {
		header = conv.Other(m.st.Self)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		threadHeaderStyle.Render(header),
		m.threadView.View(),
		"",
		m.composeInput.View(),
	)
}

func (m *Model) footerView() string {
	status := "offline"
	if m.adapter != nil && m.adapter.IsConnected() {
		status = "online"
	}

	help := "tab: switch pane · enter: select/send · ctrl+l: log out · ctrl+c: quit"
	footer := footerStyle.Render(fmt.Sprintf("%s · %s", status, help))
	if m.notice != "" {
		footer = lipgloss.JoinVertical(lipgloss.Left, noticeStyle.Render(m.notice), footer)
	}
	return footer
}
