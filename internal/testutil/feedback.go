// Package testutil provides test doubles for operator feedback.
package testutil

import (
	"context"
	"sync"
)

// Notification is one recorded notifier call.
type Notification struct {
	Level   string
	Title   string
	Message string
}

// Notifier records notifications.
type Notifier struct {
	calls []Notification
	mu    sync.Mutex
}

func (n *Notifier) add(level, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, Notification{Level: level, Title: title, Message: message})
}

// Success records a success notification.
func (n *Notifier) Success(title, message string) { n.add("success", title, message) }

// Error records an error notification.
func (n *Notifier) Error(title, message string) { n.add("error", title, message) }

// Warning records a warning notification.
func (n *Notifier) Warning(title, message string) { n.add("warning", title, message) }

// Info records an info notification.
func (n *Notifier) Info(title, message string) { n.add("info", title, message) }

// All returns every notification in order.
func (n *Notifier) All() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.calls))
	copy(out, n.calls)
	return out
}

// Messages returns the messages recorded at level.
func (n *Notifier) Messages(level string) []string {
	var out []string
	for _, c := range n.All() {
		if c.Level == level {
			out = append(out, c.Message)
		}
	}
	return out
}

// Last returns the most recent notification, or the zero value.
func (n *Notifier) Last() Notification {
	all := n.All()
	if len(all) == 0 {
		return Notification{}
	}
	return all[len(all)-1]
}

// Prompt is one recorded confirmation request.
type Prompt struct {
	Title   string
	Message string
}

// Confirmer answers confirmations with a fixed reply and records the prompts.
type Confirmer struct {
	Err     error
	prompts []Prompt
	mu      sync.Mutex
	Answer  bool
}

// Confirm records the prompt and returns the configured answer.
func (c *Confirmer) Confirm(_ context.Context, title, message string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, Prompt{Title: title, Message: message})
	return c.Answer, c.Err
}

// Prompts returns the recorded prompts.
func (c *Confirmer) Prompts() []Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Prompt, len(c.prompts))
	copy(out, c.prompts)
	return out
}
