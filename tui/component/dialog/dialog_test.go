package dialog

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/safedep/safeguard/config"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/disclosure"
	"github.com/safedep/safeguard/core/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorPrompt(allowContinue bool) disclosure.Prompt {
	return disclosure.Prompt{
		Kind:          check.KindRoot,
		Title:         "Root Access Check",
		Message:       "Process is running with root privileges (uid 0)",
		Critical:      true,
		Level:         policy.LevelError,
		AllowContinue: allowContinue,
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func TestModel_Keys(t *testing.T) {
	tests := []struct {
		name          string
		allowContinue bool
		keys          []tea.KeyMsg
		wantAnswered  bool
		wantContinue  bool
	}{
		{"enter on initial focus exits", true, []tea.KeyMsg{{Type: tea.KeyEnter}}, true, false},
		{"c continues", true, []tea.KeyMsg{runes("c")}, true, true},
		{"tab then enter continues", true, []tea.KeyMsg{{Type: tea.KeyTab}, {Type: tea.KeyEnter}}, true, true},
		{"tab twice returns to exit", true, []tea.KeyMsg{{Type: tea.KeyTab}, {Type: tea.KeyTab}, {Type: tea.KeyEnter}}, true, false},
		{"q exits", true, []tea.KeyMsg{runes("q")}, true, false},
		{"esc exits", true, []tea.KeyMsg{{Type: tea.KeyEsc}}, true, false},
		{"c ignored when continue not offered", false, []tea.KeyMsg{runes("c")}, false, false},
		{"tab cannot reach continue when not offered", false, []tea.KeyMsg{{Type: tea.KeyTab}, {Type: tea.KeyEnter}}, true, false},
		{"unrelated key does nothing", true, []tea.KeyMsg{runes("z")}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(NewModel(errorPrompt(tt.allowContinue)), tt.keys...)

			assert.Equal(t, tt.wantAnswered, m.Answered())
			assert.Equal(t, tt.wantContinue, m.ContinueAnyway())
		})
	}
}

func TestModel_AnswerQuits(t *testing.T) {
	_, cmd := NewModel(errorPrompt(true)).Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_View(t *testing.T) {
	m := NewModel(errorPrompt(true))
	view := m.View()

	assert.Contains(t, view, "Root Access Check")
	assert.Contains(t, view, "Process is running with root privileges")
	assert.Contains(t, view, "Continue anyway")

	m = NewModel(errorPrompt(false))
	assert.NotContains(t, m.View(), "Continue anyway")

	m = press(m, runes("q"))
	assert.Empty(t, m.View())
}

func TestLine_Disclose(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		allowContinue bool
		wantContinue  bool
	}{
		{"yes continues", "y\n", true, true},
		{"long form yes", "Yes\n", true, true},
		{"blank line exits", "\n", true, false},
		{"no exits", "n\n", true, false},
		{"eof exits", "", true, false},
		{"yes ignored when continue not offered", "y\n", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			d := NewLine(strings.NewReader(tt.input), &out)

			ack, err := d.Disclose(context.Background(), errorPrompt(tt.allowContinue))
			require.NoError(t, err)

			assert.Equal(t, tt.wantContinue, ack.ContinueAnyway)
			assert.Contains(t, out.String(), "Root Access Check")
		})
	}
}

func TestLine_SequentialPrompts(t *testing.T) {
	var out bytes.Buffer
	d := NewLine(strings.NewReader("y\nn\n"), &out)

	first, err := d.Disclose(context.Background(), errorPrompt(true))
	require.NoError(t, err)
	second, err := d.Disclose(context.Background(), errorPrompt(true))
	require.NoError(t, err)

	assert.True(t, first.ContinueAnyway)
	assert.False(t, second.ContinueAnyway)
}

func TestLine_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	d := NewLine(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Disclose(ctx, errorPrompt(true))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFixed_Disclose(t *testing.T) {
	var out bytes.Buffer

	ack, err := Fixed{ContinueAnyway: true, Output: &out}.Disclose(context.Background(), errorPrompt(true))
	require.NoError(t, err)
	assert.True(t, ack.ContinueAnyway)
	assert.Contains(t, out.String(), "(continue)")

	ack, err = Fixed{ContinueAnyway: true}.Disclose(context.Background(), errorPrompt(false))
	require.NoError(t, err)
	assert.False(t, ack.ContinueAnyway)

	ack, err = Fixed{ContinueAnyway: false}.Disclose(context.Background(), errorPrompt(true))
	require.NoError(t, err)
	assert.False(t, ack.ContinueAnyway)
}

func TestNew_Modes(t *testing.T) {
	opts := Options{Input: strings.NewReader(""), Output: io.Discard}

	tests := []struct {
		mode    config.DisclosureMode
		want    any
		wantErr bool
	}{
		{config.DisclosureAuto, &Line{}, false},
		{config.DisclosureLine, &Line{}, false},
		{config.DisclosureInteractive, &Interactive{}, false},
		{config.DisclosureAccept, Fixed{}, false},
		{config.DisclosureDecline, Fixed{}, false},
		{"sometimes", nil, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			d, err := New(tt.mode, opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, d)
		})
	}

	d, err := New(config.DisclosureAccept, opts)
	require.NoError(t, err)
	assert.True(t, d.(Fixed).ContinueAnyway)
}
