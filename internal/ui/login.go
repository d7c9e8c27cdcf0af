package ui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrocha/chatterm/internal/api"
	"github.com/mrocha/chatterm/internal/logger"
	"github.com/mrocha/chatterm/internal/session"
)

var (
	loginBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 3)
	loginTitleStyle  = lipgloss.NewStyle().Bold(true)
	loginNoticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func (m *Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loggingIn {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
			m.loginFocus = 1 - m.loginFocus
			if m.loginFocus == 0 {
				m.emailInput.Focus()
				m.passwordInput.Blur()
			} else {
				m.emailInput.Blur()
				m.passwordInput.Focus()
			}
			return m, textinput.Blink

		case tea.KeyEnter:
			email := m.emailInput.Value()
			password := m.passwordInput.Value()
			if email == "" || password == "" {
				m.setNotice("Please fill in email and password.")
				return m, nil
			}

			m.loggingIn = true
			m.setNotice("")
			return m, tea.Batch(m.loginCmd(email, password), m.spin.Tick)
		}

	case loginResultMsg:
		m.loggingIn = false
		if msg.err != nil {
			var authErr *api.AuthError
			if errors.As(msg.err, &authErr) {
				m.setNotice(authErr.Message)
			} else {
				logger.Log.Warn("login failed", "error", msg.err)
				m.setNotice("Could not reach the server. Check your connection.")
			}
			return m, nil
		}

		id := session.Identity{Handle: msg.email, Token: msg.token}
		if err := m.sessions.Save(id); err != nil {
			logger.Log.Warn("failed to persist session", "error", err)
		}

		m.startSession(id.Handle, id.Token)
		return m, tea.Batch(connectCmd(m.adapter), m.conversationsCmd(), m.spin.Tick)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.emailInput, cmd = m.emailInput.Update(msg)
	cmds = append(cmds, cmd)
	m.passwordInput, cmd = m.passwordInput.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) loginView() string {
	title := loginTitleStyle.Render("chatterm — sign in")

	status := ""
	if m.loggingIn {
		status = m.spin.View() + " Signing in..."
	} else if m.notice != "" {
		status = loginNoticeStyle.Render(m.notice)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		"Email",
		m.emailInput.View(),
		"",
		"Password",
		m.passwordInput.View(),
		"",
		status,
		"",
		"enter: sign in · tab: switch field · ctrl+c: quit",
	)

	box := loginBoxStyle.Render(form)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
