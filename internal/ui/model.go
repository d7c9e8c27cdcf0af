// Package ui is the terminal presentation layer: a login view and a
// two-pane chat view (conversation list plus message thread). It owns
// no chat logic of its own; user intents go to the state aggregate,
// the REST client and the transport adapter, and their results come
// back as typed messages on the event loop.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mrocha/chatterm/internal/api"
	"github.com/mrocha/chatterm/internal/config"
	"github.com/mrocha/chatterm/internal/logger"
	"github.com/mrocha/chatterm/internal/session"
	"github.com/mrocha/chatterm/internal/state"
	"github.com/mrocha/chatterm/internal/transport"
)

type view int

const (
	viewLogin view = iota
	viewChat
)

type pane int

const (
	paneSidebar pane = iota
	paneThread
)

// Model is the root bubbletea model.
type Model struct {
	cfg      config.Config
	api      *api.Client
	sessions *session.Store

	st      *state.State
	adapter *transport.Adapter

	view   view
	width  int
	height int
	notice string

	// Login view.
	emailInput    textinput.Model
	passwordInput textinput.Model
	loginFocus    int
	loggingIn     bool
	spin          spinner.Model

	// Chat view.
	focusedPane  pane
	cursor       int
	composeInput textinput.Model
	threadView   viewport.Model
	loadingConvs bool
}

// New builds the model. A valid persisted identity skips the login
// view; otherwise the user lands on it.
func New(cfg config.Config, client *api.Client, sessions *session.Store, identity *session.Identity) *Model {
	emailInput := textinput.New()
	emailInput.Placeholder = "you@example.com"
	emailInput.CharLimit = 128
	emailInput.Width = 40
	emailInput.Focus()

	passwordInput := textinput.New()
	passwordInput.Placeholder = "password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.CharLimit = 128
	passwordInput.Width = 40

	composeInput := textinput.New()
	composeInput.Placeholder = "Type a message..."
	composeInput.CharLimit = 1000
	composeInput.Width = 50

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := &Model{
		cfg:           cfg,
		api:           client,
		sessions:      sessions,
		view:          viewLogin,
		emailInput:    emailInput,
		passwordInput: passwordInput,
		composeInput:  composeInput,
		spin:          spin,
		threadView:    viewport.New(80, 20),
	}

	if identity.Valid() {
		m.startSession(identity.Handle, identity.Token)
	}

	return m
}

// startSession wires the per-session resources: token on the REST
// client, fresh state, and a new transport adapter. The adapter is the
// session-scoped owner of the one real-time connection.
func (m *Model) startSession(handle, token string) {
	m.api.SetToken(token)
	m.st = state.New(handle, m.api.MarkRead)
	m.adapter = transport.New(m.cfg.BrokerURL, token, handle)
	m.view = viewChat
	m.focusedPane = paneSidebar
	m.cursor = 0
	m.loadingConvs = true
	m.composeInput.Focus()
}

// endSession tears the session down: connection closed, state
// dropped, persisted identity cleared.
func (m *Model) endSession() {
	if m.adapter != nil {
		m.adapter.Close()
		m.adapter = nil
	}
	if m.st != nil {
		m.st.Logout()
		m.st = nil
	}
	m.api.SetToken("")
	if err := m.sessions.Clear(); err != nil {
		logger.Log.Warn("failed to clear session", "error", err)
	}

	m.view = viewLogin
	m.notice = ""
	m.loggingIn = false
	m.emailInput.SetValue("")
	m.passwordInput.SetValue("")
	m.loginFocus = 0
	m.emailInput.Focus()
	m.passwordInput.Blur()
}

func (m *Model) Init() tea.Cmd {
	if m.view == viewChat {
		return tea.Batch(
			textinput.Blink,
			m.spin.Tick,
			connectCmd(m.adapter),
			m.conversationsCmd(),
		)
	}
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.adapter != nil {
				m.adapter.Close()
			}
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.loggingIn || m.loadingConvs {
			return m, cmd
		}
		return m, nil
	}

	switch m.view {
	case viewLogin:
		return m.updateLogin(msg)
	default:
		return m.updateChat(msg)
	}
}

func (m *Model) View() string {
	switch m.view {
	case viewLogin:
		return m.loginView()
	default:
		return m.chatView()
	}
}

func (m *Model) resize() {
	sidebar := sidebarWidth
	if m.width > 0 {
		m.threadView.Width = max(20, m.width-sidebar-4)
		m.threadView.Height = max(5, m.height-6)
		m.composeInput.Width = max(20, m.width-sidebar-8)
	}
	m.refreshThreadView()
}

// setNotice records a user-visible status-line message. Errors degrade
// to this; nothing is fatal.
func (m *Model) setNotice(text string) {
	m.notice = strings.TrimSpace(text)
}
