// Package dialog implements the ways a violation can be disclosed to the
// user: a full screen dialog, a plain line prompt and fixed answers.
package dialog

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/safedep/dry/log"
	"github.com/safedep/safeguard/config"
	"github.com/safedep/safeguard/core/disclosure"
	"github.com/safedep/safeguard/core/enforce"
	"github.com/safedep/safeguard/tui"
)

// Options configures the disclosers built by New.
type Options struct {
	Input  io.Reader
	Output io.Writer
}

func (o Options) withDefaults() Options {
	if o.Input == nil {
		o.Input = os.Stdin
	}
	if o.Output == nil {
		o.Output = os.Stderr
	}
	return o
}

// New returns the discloser for mode. Auto picks the dialog when both ends
// are a terminal and the line prompt otherwise.
func New(mode config.DisclosureMode, opts Options) (disclosure.Discloser, error) {
	opts = opts.withDefaults()

	switch mode {
	case config.DisclosureInteractive:
		return NewInteractive(opts), nil
	case config.DisclosureLine:
		return NewLine(opts.Input, opts.Output), nil
	case config.DisclosureAccept:
		return Fixed{ContinueAnyway: true, Output: opts.Output}, nil
	case config.DisclosureDecline:
		return Fixed{ContinueAnyway: false, Output: opts.Output}, nil
	case config.DisclosureAuto, "":
		if tui.IsReaderTerminal(opts.Input) && tui.IsWriterTerminal(opts.Output) {
			return NewInteractive(opts), nil
		}
		return NewLine(opts.Input, opts.Output), nil
	default:
		return nil, fmt.Errorf("unknown disclosure mode %q", mode)
	}
}

// Interactive shows each violation in a bubbletea dialog.
type Interactive struct {
	opts Options
}

// NewInteractive creates an Interactive discloser.
func NewInteractive(opts Options) *Interactive {
	return &Interactive{opts: opts.withDefaults()}
}

func (d *Interactive) Disclose(ctx context.Context, p disclosure.Prompt) (enforce.Ack, error) {
	program := tea.NewProgram(NewModel(p),
		tea.WithInput(d.opts.Input),
		tea.WithOutput(d.opts.Output),
		tea.WithAltScreen())

	type result struct {
		model tea.Model
		err   error
	}

	done := make(chan result, 1)
	go func() {
		m, err := program.Run()
		done <- result{model: m, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		program.Kill()
		<-done
		return enforce.Ack{}, ctx.Err()
	}

	if res.err != nil {
		return enforce.Ack{}, fmt.Errorf("dialog: %w", res.err)
	}

	m, ok := res.model.(Model)
	if !ok || !m.Answered() {
		return enforce.Ack{}, nil
	}

	log.Debugf("Dialog for %s answered: continue=%t", p.Kind, m.ContinueAnyway())

	return enforce.Ack{ContinueAnyway: m.ContinueAnyway()}, nil
}

// Fixed answers every prompt the same way and reports what it did.
type Fixed struct {
	ContinueAnyway bool
	Output         io.Writer
}

func (d Fixed) Disclose(ctx context.Context, p disclosure.Prompt) (enforce.Ack, error) {
	if err := ctx.Err(); err != nil {
		return enforce.Ack{}, err
	}

	proceed := d.ContinueAnyway && p.AllowContinue

	if d.Output != nil {
		answer := "exit"
		if proceed {
			answer = "continue"
		}
		fmt.Fprintf(d.Output, "[%s] %s: %s (%s)\n", p.Level, p.Title, p.Message, answer)
	}

	return enforce.Ack{ContinueAnyway: proceed}, nil
}

var (
	_ disclosure.Discloser = (*Interactive)(nil)
	_ disclosure.Discloser = (*Line)(nil)
	_ disclosure.Discloser = Fixed{}
)
