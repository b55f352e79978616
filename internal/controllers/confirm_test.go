package controllers

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/amaumene/watchsync/internal/services/plex"
	"github.com/stretchr/testify/assert"
)

func newTestGate(input string) (*ConfirmationGate, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewConfirmationGate(strings.NewReader(input), NewReporter(out, false), discardLogger()), out
}

func TestConfirmationGateAnswers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Decision
	}{
		{"yes", "y\n", DecisionContinue},
		{"upper case yes", "Y\n", DecisionContinue},
		{"no", "n\n", DecisionSkip},
		{"padded", "  N \r\n", DecisionSkip},
		{"yes without newline", "y", DecisionContinue},
		{"empty input", "", DecisionAbort},
		{"only invalid", "maybe\n", DecisionAbort},
		{"invalid then yes", "yes\nx\ny\n", DecisionContinue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, _ := newTestGate(tt.input)
			assert.Equal(t, tt.expected, gate.Confirm(context.Background(), owner))
		})
	}
}

func TestConfirmationGatePerIdentity(t *testing.T) {
	gate, out := newTestGate("n\ny\n")

	assert.Equal(t, DecisionSkip, gate.Confirm(context.Background(), plex.Identity{Name: "Owner"}))
	assert.Equal(t, DecisionContinue, gate.Confirm(context.Background(), plex.Identity{Name: "Kid"}))

	assert.Contains(t, out.String(), "Would you like to import Shoko watched states to: Owner (Y/N)")
	assert.Contains(t, out.String(), "Would you like to import Shoko watched states to: Kid (Y/N)")
}

func TestConfirmationGateReprompts(t *testing.T) {
	gate, out := newTestGate("what\ny\n")

	assert.Equal(t, DecisionContinue, gate.Confirm(context.Background(), owner))
	assert.Equal(t, 2, strings.Count(out.String(), "Would you like to import"))
	assert.Contains(t, out.String(), "⨯───Please enter \"Y\" or \"N\"")
}

func TestConfirmationGateAutoConfirm(t *testing.T) {
	gate, out := newTestGate("")
	gate.SetAutoConfirm(true)

	assert.Equal(t, DecisionContinue, gate.Confirm(context.Background(), owner))
	assert.Empty(t, out.String())
}

func TestConfirmationGateAbortsWhenCancelled(t *testing.T) {
	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })
	gate := NewConfirmationGate(in, NewReporter(&bytes.Buffer{}, false), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	decision := make(chan Decision, 1)
	go func() { decision <- gate.Confirm(ctx, owner) }()

	select {
	case d := <-decision:
		assert.Equal(t, DecisionAbort, d)
	case <-time.After(time.Second):
		t.Fatal("confirmation still waiting for input after cancel")
	}
}

func TestConfirmationGateKeepsInputAfterCancel(t *testing.T) {
	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })
	gate := NewConfirmationGate(in, NewReporter(&bytes.Buffer{}, false), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, DecisionAbort, gate.Confirm(ctx, owner))

	go func() { _, _ = io.WriteString(w, "y\n") }()
	assert.Equal(t, DecisionContinue, gate.Confirm(context.Background(), owner))
}
