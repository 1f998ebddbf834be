package tui

import (
	"context"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/waabox/repogen/internal/auth"
)

var (
	codeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7F5283")).
			Padding(0, 1)
	urlStyle  = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("12"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type loginState int

const (
	stateRequesting loginState = iota
	stateWaiting
	stateDone
	stateFailed
)

// SessionMsg carries the device code response. Exported so tests can inject
// it directly into LoginModel.Update.
type SessionMsg struct {
	Session auth.DeviceSession
	Err     error
}

// LoginDoneMsg signals that polling and validation finished.
type LoginDoneMsg struct {
	Identity auth.Identity
	Token    string
	Err      error
}

// LoginModel drives the device authorization flow: it requests a code, shows
// it to the user while a background command polls for the token, and reports
// the terminal result.
type LoginModel struct {
	flow   *auth.Flow
	ctx    context.Context
	cancel context.CancelFunc

	state    loginState
	spinner  spinner.Model
	session  auth.DeviceSession
	copied   bool
	identity auth.Identity
	token    string
	err      error
}

// NewLoginModel creates a LoginModel. cancel stops the background polling
// when the user quits; pass a no-op when the context is not cancellable.
func NewLoginModel(ctx context.Context, cancel context.CancelFunc, flow *auth.Flow) LoginModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	if cancel == nil {
		cancel = func() {}
	}
	return LoginModel{flow: flow, ctx: ctx, cancel: cancel, spinner: s}
}

func (m LoginModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, requestCode(m.ctx, m.flow))
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.cancel()
			if m.state != stateDone {
				m.state = stateFailed
				m.err = context.Canceled
			}
			return m, tea.Quit
		}
		return m, nil

	case SessionMsg:
		if msg.Err != nil {
			m.state = stateFailed
			m.err = msg.Err
			return m, tea.Quit
		}
		m.state = stateWaiting
		m.session = msg.Session
		// best effort; headless terminals have no clipboard
		m.copied = clipboard.WriteAll(msg.Session.UserCode) == nil
		return m, complete(m.ctx, m.flow, m.session)

	case LoginDoneMsg:
		if msg.Err != nil {
			m.state = stateFailed
			m.err = msg.Err
		} else {
			m.state = stateDone
			m.identity = msg.Identity
			m.token = msg.Token
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m LoginModel) View() string {
	switch m.state {
	case stateRequesting:
		return fmt.Sprintf("%s Requesting device code from GitHub...\n", m.spinner.View())
	case stateWaiting:
		copied := ""
		if m.copied {
			copied = dimStyle.Render(" (copied to clipboard)")
		}
		return fmt.Sprintf("Visit %s and enter the code:\n\n  %s%s\n\n%s Waiting for authorization... %s\n",
			urlStyle.Render(m.session.VerificationURI),
			codeStyle.Render(m.session.UserCode),
			copied,
			m.spinner.View(),
			dimStyle.Render("(q to cancel)"))
	case stateDone:
		return okStyle.Render(fmt.Sprintf("Authenticated as %s\n", m.identity.Login))
	case stateFailed:
		return failStyle.Render(fmt.Sprintf("Authentication failed: %v\n", m.err))
	}
	return ""
}

// Result returns the terminal result after the program has finished.
func (m LoginModel) Result() (auth.Identity, string, error) {
	if m.err != nil {
		return auth.Identity{}, "", m.err
	}
	return m.identity, m.token, nil
}

func requestCode(ctx context.Context, flow *auth.Flow) tea.Cmd {
	return func() tea.Msg {
		session, err := flow.RequestCode(ctx)
		return SessionMsg{Session: session, Err: err}
	}
}

func complete(ctx context.Context, flow *auth.Flow, session auth.DeviceSession) tea.Cmd {
	return func() tea.Msg {
		identity, token, err := flow.Complete(ctx, session)
		return LoginDoneMsg{Identity: identity, Token: token, Err: err}
	}
}

// RunLogin runs the device flow behind a full-screen-free bubbletea program
// writing to stderr, so stdout stays clean for piping.
func RunLogin(ctx context.Context, flow *auth.Flow) (auth.Identity, string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewLoginModel(ctx, cancel, flow), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return auth.Identity{}, "", fmt.Errorf("running login: %w", err)
	}
	return final.(LoginModel).Result()
}
