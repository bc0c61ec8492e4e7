package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks yes/no questions on a terminal. It implements
// service.Confirmer. Only an explicit yes ("y", "yes", "s", "si") accepts.
type Confirmer struct {
	reader *answerReader
	out    io.Writer
	assume bool
}

// NewConfirmer reads answers from in and writes prompts to out.
func NewConfirmer(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{
		reader: newAnswerReader(in),
		out:    out,
	}
}

// AssumeYes returns a Confirmer that accepts without asking, for --force.
func AssumeYes() *Confirmer {
	return &Confirmer{assume: true}
}

// Confirm shows title and message and waits for an answer. End of input
// declines; a canceled context returns ErrInputCancelled.
func (c *Confirmer) Confirm(ctx context.Context, title, message string) (bool, error) {
	if c.assume {
		return true, nil
	}

	if title != "" {
		fmt.Fprintln(c.out, WarningStyle.Render(title))
	}
	fmt.Fprint(c.out, FormatPrompt(message+" [y/N]"))

	answer, err := c.reader.ReadAnswer(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out)
			return false, nil
		}
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes", "s", "si", "sí":
		return true, nil
	default:
		return false, nil
	}
}
