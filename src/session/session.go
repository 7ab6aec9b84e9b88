// Package session runs the interactive read-print loop that feeds operator
// input to a planner and keeps a bounded conversation history.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/adk"
)

const (
	fallbackOutput = "I encountered an error processing your request."
	rule           = "----------------------------------------------------------------------"

	farewellExit      = "\n👋 Thanks for watching the demo!"
	farewellInterrupt = "\n\n👋 Demo ended!"
)

// Planner answers one input given prior history. *adk.Planner satisfies it.
type Planner interface {
	Invoke(ctx context.Context, input string, history []adk.Turn) (string, error)
}

// IsExitKeyword reports whether s asks to end the session.
func IsExitKeyword(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quit", "exit", "bye":
		return true
	}
	return false
}

// Option configures a Session.
type Option func(*Session)

// WithMaxHistory overrides DefaultMaxHistory.
func WithMaxHistory(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithLogger sets a diagnostic logger.
func WithLogger(logger func(format string, args ...interface{})) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session is the state of one interactive conversation. History lives only
// in memory and is owned by the goroutine calling Run or Turn.
type Session struct {
	ID string

	planner    Planner
	history    []adk.Turn
	maxHistory int
	maxLine    int
	prompt     string
	logger     func(format string, args ...interface{})
}

// New creates a Session with an empty history.
func New(planner Planner, opts ...Option) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		planner:    planner,
		maxHistory: DefaultMaxHistory,
		maxLine:    DefaultMaxLineBytes,
		prompt:     "\n👤 You: ",
		logger:     func(string, ...interface{}) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// History returns a copy of the stored turns, oldest first.
func (s *Session) History() []adk.Turn {
	return append([]adk.Turn(nil), s.history...)
}

// Turn sends input to the planner with the current history and records the
// exchange. History is left untouched when the planner fails.
func (s *Session) Turn(ctx context.Context, input string) (string, error) {
	output, err := s.invoke(ctx, input)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(output) == "" {
		output = fallbackOutput
	}
	s.history = Truncate(append(s.History(),
		adk.Turn{Role: adk.TurnHuman, Text: input},
		adk.Turn{Role: adk.TurnAssistant, Text: output},
	), s.maxHistory)
	s.logger("session %s: %d turns in history", s.ID, len(s.history))
	return output, nil
}

func (s *Session) invoke(ctx context.Context, input string) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("planner panic: %v", r)
		}
	}()
	return s.planner.Invoke(ctx, input, s.History())
}

type inputLine struct {
	text string
	err  error
}

// Run reads lines from in until an exit keyword, end of input, or ctx
// cancellation, printing planner replies to out. A failing turn or an
// over-long line is reported and the loop continues. Run returns nil on every
// clean shutdown path.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan inputLine)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(lines)
		r := bufio.NewReader(in)
		for {
			text, err := readLine(r, s.maxLine)
			if err != nil && !errors.Is(err, ErrLineTooLong) {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
			select {
			case lines <- inputLine{text: text, err: err}:
			case <-done:
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, s.prompt)

		var line inputLine
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, farewellInterrupt)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out, farewellExit)
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			line = l
		}

		if line.err != nil {
			s.logger("session %s: %v", s.ID, line.err)
			fmt.Fprintf(out, "\n❌ Error: %v\n", line.err)
			continue
		}
		input := strings.TrimSpace(line.text)
		if input == "" {
			continue
		}
		if IsExitKeyword(input) {
			fmt.Fprintln(out, farewellExit)
			return nil
		}

		fmt.Fprintln(out, "\n🤖 Agent: ")
		fmt.Fprintln(out, rule)
		output, err := s.Turn(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(out, farewellInterrupt)
				return nil
			}
			s.logger("session %s: turn failed: %v", s.ID, err)
			fmt.Fprintf(out, "\n❌ Error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "\n%s\n\n", output)
	}
}
