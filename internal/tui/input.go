package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// inputModel is a single line text prompt. Enter only submits when validate
// accepts the value; otherwise the reason is shown under the field.
type inputModel struct {
	title     string
	field     textinput.Model
	validate  func(string) error
	problem   string
	done      bool
	cancelled bool
}

func newInputModel(title, initial string, validate func(string) error) inputModel {
	field := textinput.New()
	field.SetValue(initial)
	field.CursorEnd()
	field.Focus()
	return inputModel{title: title, field: field, validate: validate}
}

func (m inputModel) value() string {
	return strings.TrimSpace(m.field.Value())
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.validate != nil {
				if err := m.validate(m.value()); err != nil {
					m.problem = err.Error()
					return m, nil
				}
			}
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	m.problem = ""
	return m, cmd
}

func (m inputModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.field.View())
	b.WriteString("\n")
	if m.problem != "" {
		b.WriteString(errorStyle.Render(m.problem))
	} else {
		b.WriteString(hintStyle.Render("enter to confirm, esc to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

type confirmModel struct {
	question  string
	answer    bool
	done      bool
	cancelled bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch strings.ToLower(key.String()) {
	case "y":
		m.answer, m.done = true, true
		return m, tea.Quit
	case "n", "enter":
		m.answer, m.done = false, true
		return m, tea.Quit
	case "esc", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return titleStyle.Render(m.question) + hintStyle.Render(" [y/N] ") + "\n"
}
