package dialog

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/safedep/safeguard/core/disclosure"
)

type button int

const (
	buttonExit button = iota
	buttonContinue
)

// Model is the bubbletea model of a single violation dialog.
type Model struct {
	prompt   disclosure.Prompt
	selected button
	answered bool
	proceed  bool
	width    int
	height   int
}

// NewModel creates a dialog for p. Exit is focused initially.
func NewModel(p disclosure.Prompt) Model {
	return Model{prompt: p, selected: buttonExit}
}

// Answered reports whether the user made a choice.
func (m Model) Answered() bool {
	return m.answered
}

// ContinueAnyway reports whether the user chose to continue.
func (m Model) ContinueAnyway() bool {
	return m.answered && m.proceed
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c", "x":
		return m.answer(false)

	case "c", "y":
		if m.prompt.AllowContinue {
			return m.answer(true)
		}
		return m, nil

	case "left", "right", "tab", "shift+tab", "h", "l":
		if m.prompt.AllowContinue {
			if m.selected == buttonExit {
				m.selected = buttonContinue
			} else {
				m.selected = buttonExit
			}
		}
		return m, nil

	case "enter", " ":
		return m.answer(m.selected == buttonContinue && m.prompt.AllowContinue)
	}

	return m, nil
}

func (m Model) answer(proceed bool) (tea.Model, tea.Cmd) {
	m.answered = true
	m.proceed = proceed
	return m, tea.Quit
}

func (m Model) View() string {
	if m.answered {
		return ""
	}

	accent := accentFor(m.prompt.Critical)

	var b strings.Builder
	b.WriteString(titleStyle.Foreground(accent).Render(m.prompt.Title))
	b.WriteString("\n\n")
	b.WriteString(messageStyle.Render(m.prompt.Message))
	b.WriteString("\n\n")
	b.WriteString(levelStyle.Render(fmt.Sprintf("Policy level: %s", m.prompt.Level)))
	if m.prompt.Fault {
		b.WriteString(levelStyle.Render("  (check could not complete)"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.buttons())
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render(m.hint()))

	box := boxStyle.BorderForeground(accent).Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) buttons() string {
	exit := buttonStyle.Render("Exit")
	if m.selected == buttonExit {
		exit = activeButtonStyle.Render("Exit")
	}

	if !m.prompt.AllowContinue {
		return exit
	}

	cont := buttonStyle.Render("Continue anyway")
	if m.selected == buttonContinue {
		cont = activeButtonStyle.Render("Continue anyway")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, exit, "  ", cont)
}

func (m Model) hint() string {
	if m.prompt.AllowContinue {
		return "enter select  c continue  q exit"
	}
	return "enter / q exit"
}
