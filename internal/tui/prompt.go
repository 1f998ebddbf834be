package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrPromptAborted is returned when the user cancels a prompt with Esc or
// Ctrl+C.
var ErrPromptAborted = errors.New("prompt aborted")

var (
	labelStyle  = lipgloss.NewStyle().Bold(true)
	cursorGlyph = "> "
)

// TextPromptModel asks for one line of input, with an optional default shown
// as the placeholder.
type TextPromptModel struct {
	label      string
	defaultVal string
	validate   func(string) error
	input      textinput.Model
	errMsg     string
	done       bool
	aborted    bool
}

// NewTextPrompt creates a text prompt. validate may be nil; secret masks the
// typed input.
func NewTextPrompt(label, defaultVal string, secret bool, validate func(string) error) TextPromptModel {
	ti := textinput.New()
	ti.Placeholder = defaultVal
	ti.CharLimit = 200
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
	}
	ti.Focus()
	return TextPromptModel{label: label, defaultVal: defaultVal, validate: validate, input: ti}
}

func (m TextPromptModel) Init() tea.Cmd { return textinput.Blink }

func (m TextPromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			if m.validate != nil {
				if err := m.validate(m.Value()); err != nil {
					m.errMsg = err.Error()
					return m, nil
				}
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.errMsg != "" {
		m.errMsg = ""
	}
	return m, cmd
}

func (m TextPromptModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(m.label), m.input.View())
	if m.errMsg != "" {
		fmt.Fprintf(&b, "%s\n", failStyle.Render(m.errMsg))
	}
	return b.String()
}

// Value returns the typed text, falling back to the default when the user
// entered nothing.
func (m TextPromptModel) Value() string {
	v := strings.TrimSpace(m.input.Value())
	if v == "" {
		return m.defaultVal
	}
	return v
}

// ConfirmPromptModel asks a yes/no question.
type ConfirmPromptModel struct {
	label   string
	value   bool
	done    bool
	aborted bool
}

func NewConfirmPrompt(label string, defaultYes bool) ConfirmPromptModel {
	return ConfirmPromptModel{label: label, value: defaultYes}
}

func (m ConfirmPromptModel) Init() tea.Cmd { return nil }

func (m ConfirmPromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "y", "Y":
		m.value = true
		m.done = true
		return m, tea.Quit
	case "n", "N":
		m.value = false
		m.done = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ConfirmPromptModel) View() string {
	hint := "y/N"
	if m.value {
		hint = "Y/n"
	}
	return fmt.Sprintf("%s %s ", labelStyle.Render(m.label), dimStyle.Render("["+hint+"]"))
}

// Value returns the answer.
func (m ConfirmPromptModel) Value() bool { return m.value }

// SelectPromptModel asks the user to pick one option from a list.
type SelectPromptModel struct {
	label   string
	options []string
	cursor  int
	done    bool
	aborted bool
}

func NewSelectPrompt(label string, options []string, defaultIndex int) SelectPromptModel {
	if defaultIndex < 0 || defaultIndex >= len(options) {
		defaultIndex = 0
	}
	return SelectPromptModel{label: label, options: options, cursor: defaultIndex}
}

func (m SelectPromptModel) Init() tea.Cmd { return nil }

func (m SelectPromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m SelectPromptModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", labelStyle.Render(m.label))
	for i, opt := range m.options {
		if i == m.cursor {
			fmt.Fprintf(&b, "%s%s\n", cursorGlyph, codeStyle.Render(opt))
		} else {
			fmt.Fprintf(&b, "  %s\n", opt)
		}
	}
	return b.String()
}

// Index returns the selected option index.
func (m SelectPromptModel) Index() int { return m.cursor }

func runPrompt(model tea.Model) (tea.Model, error) {
	p := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running prompt: %w", err)
	}
	return final, nil
}

// AskText prompts for a line of text.
func AskText(label, defaultVal string, validate func(string) error) (string, error) {
	final, err := runPrompt(NewTextPrompt(label, defaultVal, false, validate))
	if err != nil {
		return "", err
	}
	m := final.(TextPromptModel)
	if m.aborted {
		return "", ErrPromptAborted
	}
	return m.Value(), nil
}

// AskSecret prompts for a line of text with masked echo.
func AskSecret(label string, validate func(string) error) (string, error) {
	final, err := runPrompt(NewTextPrompt(label, "", true, validate))
	if err != nil {
		return "", err
	}
	m := final.(TextPromptModel)
	if m.aborted {
		return "", ErrPromptAborted
	}
	return m.Value(), nil
}

// AskConfirm prompts for a yes/no answer.
func AskConfirm(label string, defaultYes bool) (bool, error) {
	final, err := runPrompt(NewConfirmPrompt(label, defaultYes))
	if err != nil {
		return false, err
	}
	m := final.(ConfirmPromptModel)
	if m.aborted {
		return false, ErrPromptAborted
	}
	return m.Value(), nil
}

// AskSelect prompts the user to pick one option and returns its index.
func AskSelect(label string, options []string, defaultIndex int) (int, error) {
	final, err := runPrompt(NewSelectPrompt(label, options, defaultIndex))
	if err != nil {
		return 0, err
	}
	m := final.(SelectPromptModel)
	if m.aborted {
		return 0, ErrPromptAborted
	}
	return m.Index(), nil
}
