package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier(t *testing.T) {
	tests := []struct {
		notify func(*Notifier)
		name   string
		want   string
	}{
		{
			name:   "success default title",
			notify: func(n *Notifier) { n.Success("", "Category created") },
			want:   "Success: Category created",
		},
		{
			name:   "error custom title",
			notify: func(n *Notifier) { n.Error("Delete failed", "has active subcategories") },
			want:   "Delete failed: has active subcategories",
		},
		{
			name:   "warning default title",
			notify: func(n *Notifier) { n.Warning("", "logo too large") },
			want:   "Warning: logo too large",
		},
		{
			name:   "info default title",
			notify: func(n *Notifier) { n.Info("", "nothing to do") },
			want:   "Information: nothing to do",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			tt.notify(NewNotifier(&out))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestConfirmer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full yes", input: "YES\n", want: true},
		{name: "spanish", input: "si\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty defaults to no", input: "\n", want: false},
		{name: "end of input declines", input: "", want: false},
		{name: "garbage declines", input: "maybe\n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewConfirmer(strings.NewReader(tt.input), &out)

			ok, err := c.Confirm(context.Background(), "Delete category", `Delete "Hogar"?`)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), `Delete "Hogar"? [y/N]`)
		})
	}
}

func TestConfirmerCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	c := NewConfirmer(pr, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ok, err := c.Confirm(ctx, "", "Continue?")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestAssumeYes(t *testing.T) {
	ok, err := AssumeYes().Confirm(context.Background(), "t", "m")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFormatStatus(t *testing.T) {
	assert.Contains(t, FormatStatus(true), "Active")
	assert.Contains(t, FormatStatus(false), "Inactive")
}
