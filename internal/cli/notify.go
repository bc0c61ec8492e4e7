package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Default notification titles.
const (
	TitleSuccess = "Success"
	TitleError   = "Error"
	TitleWarning = "Warning"
	TitleInfo    = "Information"
)

// Notifier prints styled notifications. It implements service.Notifier.
type Notifier struct {
	out io.Writer
	mu  sync.Mutex
}

// NewNotifier writes notifications to out, or stderr when out is nil.
func NewNotifier(out io.Writer) *Notifier {
	if out == nil {
		out = os.Stderr
	}
	return &Notifier{out: out}
}

// Success reports a completed operation. An empty title uses the default.
func (n *Notifier) Success(title, message string) {
	n.print(FormatSuccess, title, TitleSuccess, message)
}

// Error reports a failed operation.
func (n *Notifier) Error(title, message string) {
	n.print(FormatError, title, TitleError, message)
}

// Warning reports something the user should look at.
func (n *Notifier) Warning(title, message string) {
	n.print(FormatWarning, title, TitleWarning, message)
}

// Info reports neutral information.
func (n *Notifier) Info(title, message string) {
	n.print(FormatInfo, title, TitleInfo, message)
}

func (n *Notifier) print(format func(string) string, title, fallback, message string) {
	if title == "" {
		title = fallback
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	// Notifications are best effort.
	_, _ = fmt.Fprintln(n.out, format(title+": "+message))
}
