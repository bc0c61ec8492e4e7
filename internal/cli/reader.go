package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when a prompt is abandoned before an answer
// arrives.
var ErrInputCancelled = errors.New("input canceled")

// answerReader hands terminal lines to confirmation prompts. One goroutine
// owns the input, so a line typed after a prompt was cancelled goes to the
// next prompt instead of being lost.
type answerReader struct {
	in    *bufio.Reader
	lines chan string
	err   error
	start sync.Once
}

func newAnswerReader(in io.Reader) *answerReader {
	return &answerReader{
		in:    bufio.NewReader(in),
		lines: make(chan string),
	}
}

func (r *answerReader) pump() {
	for {
		line, err := r.in.ReadString('\n')
		// A final answer without a newline still counts.
		if line != "" {
			r.lines <- strings.TrimSpace(line)
		}
		if err != nil {
			r.err = err
			close(r.lines)
			return
		}
	}
}

// ReadAnswer waits for the next line and returns it trimmed. Once the input
// is exhausted every call returns its error, usually io.EOF.
func (r *answerReader) ReadAnswer(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}
	r.start.Do(func() { go r.pump() })

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case line, ok := <-r.lines:
		if !ok {
			return "", r.err
		}
		return line, nil
	}
}
