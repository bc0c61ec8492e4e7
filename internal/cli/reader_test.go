package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerReader_ReadAnswer(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "yes", input: "y\n", want: "y"},
		{name: "surrounding whitespace", input: "  si  \n", want: "si"},
		{name: "empty line", input: "\n", want: ""},
		{name: "last line without newline", input: "yes", want: "yes"},
		{name: "end of input", input: "", wantErr: io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAnswerReader(strings.NewReader(tt.input))

			got, err := r.ReadAnswer(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnswerReader_Sequence(t *testing.T) {
	r := newAnswerReader(strings.NewReader("n\ny\n"))
	ctx := context.Background()

	for _, want := range []string{"n", "y"} {
		got, err := r.ReadAnswer(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	for range 2 {
		_, err := r.ReadAnswer(ctx)
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestAnswerReader_CancelledBeforeReading(t *testing.T) {
	r := newAnswerReader(strings.NewReader("y\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.ReadAnswer(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestAnswerReader_AnswerAfterCancelGoesToNextPrompt(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()
	r := newAnswerReader(pr)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.ReadAnswer(ctx)
	require.ErrorIs(t, err, ErrInputCancelled)

	go func() { _, _ = io.WriteString(pw, "y\n") }()

	got, err := r.ReadAnswer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "y", got)
}
