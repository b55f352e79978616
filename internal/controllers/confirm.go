package controllers

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/amaumene/watchsync/internal/services/plex"
	"github.com/sirupsen/logrus"
)

// Decision is the answer given for one identity before importing into it
type Decision int

const (
	DecisionContinue Decision = iota // import into this identity
	DecisionSkip                     // leave this identity untouched
	DecisionAbort                    // stop the run, input is exhausted
)

func (d Decision) String() string {
	switch d {
	case DecisionContinue:
		return "continue"
	case DecisionSkip:
		return "skip"
	default:
		return "abort"
	}
}

// Confirmer gates import mode per identity
type Confirmer interface {
	Confirm(ctx context.Context, identity plex.Identity) Decision
}

type answer struct {
	line string
	err  error
}

// ConfirmationGate asks a yes/no question on the console for every identity
type ConfirmationGate struct {
	in          *bufio.Reader
	reporter    *Reporter
	autoConfirm bool
	logger      *logrus.Logger

	once    sync.Once
	answers chan answer
}

// NewConfirmationGate creates a gate reading answers from in
func NewConfirmationGate(in io.Reader, reporter *Reporter, logger *logrus.Logger) *ConfirmationGate {
	return &ConfirmationGate{
		in:       bufio.NewReader(in),
		reporter: reporter,
		logger:   logger,
	}
}

// SetAutoConfirm answers yes for every identity without prompting
func (g *ConfirmationGate) SetAutoConfirm(auto bool) {
	g.autoConfirm = auto
}

// Confirm prompts until it gets "y" or "n". Anything else re-prompts; running
// out of input or cancelling ctx aborts.
func (g *ConfirmationGate) Confirm(ctx context.Context, identity plex.Identity) Decision {
	if g.autoConfirm {
		g.logger.WithField("identity", identity.Name).Info("Import auto-confirmed")
		return DecisionContinue
	}

	for {
		g.reporter.Prompt(identity.Name)
		line, err := g.readLine(ctx)

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y":
			return DecisionContinue
		case "n":
			g.reporter.Skipped(identity.Name)
			return DecisionSkip
		}

		if err != nil {
			g.logger.WithError(err).WithField("identity", identity.Name).Warn("No answer for import confirmation, aborting")
			return DecisionAbort
		}
		g.reporter.InvalidAnswer()
	}
}

// readLine waits for the next input line or for ctx to end. A single reader
// goroutine owns the input so an abandoned read is picked up by the next call.
func (g *ConfirmationGate) readLine(ctx context.Context) (string, error) {
	g.once.Do(func() {
		g.answers = make(chan answer)
		go g.scan()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a, ok := <-g.answers:
		if !ok {
			return "", io.EOF
		}
		return a.line, a.err
	}
}

func (g *ConfirmationGate) scan() {
	defer close(g.answers)
	for {
		line, err := g.in.ReadString('\n')
		g.answers <- answer{line: line, err: err}
		if err != nil {
			return
		}
	}
}
