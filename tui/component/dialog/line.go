package dialog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/safedep/safeguard/core/disclosure"
	"github.com/safedep/safeguard/core/enforce"
)

// Line discloses violations as plain text and reads the answer from a line
// of input. End of input counts as "exit".
type Line struct {
	in  io.Reader
	out io.Writer

	once  sync.Once
	lines chan string
}

// NewLine creates a line prompt discloser.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: in, out: out}
}

// The reader goroutine outlives a cancelled prompt so the next prompt can
// pick up the pending line.
func (d *Line) start() {
	d.once.Do(func() {
		d.lines = make(chan string)
		go func() {
			defer close(d.lines)
			scanner := bufio.NewScanner(d.in)
			for scanner.Scan() {
				d.lines <- scanner.Text()
			}
		}()
	})
}

func (d *Line) Disclose(ctx context.Context, p disclosure.Prompt) (enforce.Ack, error) {
	d.start()

	fmt.Fprintf(d.out, "\n%s [%s]\n  %s\n", p.Title, p.Level, p.Message)
	if !p.AllowContinue {
		fmt.Fprint(d.out, "Press enter to exit. ")
	} else {
		fmt.Fprint(d.out, "Continue anyway? [y/N] ")
	}

	select {
	case <-ctx.Done():
		fmt.Fprintln(d.out)
		return enforce.Ack{}, ctx.Err()
	case line, ok := <-d.lines:
		if !ok || !p.AllowContinue {
			return enforce.Ack{}, nil
		}
		return enforce.Ack{ContinueAnyway: isYes(line)}, nil
	}
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "c", "continue":
		return true
	}
	return false
}
