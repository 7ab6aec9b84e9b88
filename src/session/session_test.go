package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/adk"
)

type call struct {
	input   string
	history []adk.Turn
}

type fakePlanner struct {
	mu     sync.Mutex
	calls  []call
	answer func(input string) (string, error)
}

func (f *fakePlanner) Invoke(ctx context.Context, input string, history []adk.Turn) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{input: input, history: history})
	f.mu.Unlock()
	if f.answer != nil {
		return f.answer(input)
	}
	return "echo: " + input, nil
}

func (f *fakePlanner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestIsExitKeyword(t *testing.T) {
	for _, s := range []string{"quit", "exit", "bye", "QUIT", "  Bye  ", "Exit\n"} {
		assert.True(t, IsExitKeyword(s), s)
	}
	for _, s := range []string{"", "quitting", "good bye", "laptops"} {
		assert.False(t, IsExitKeyword(s), s)
	}
}

func TestTurnBoundsHistory(t *testing.T) {
	p := &fakePlanner{}
	s := New(p)

	for n := 1; n <= 15; n++ {
		_, err := s.Turn(context.Background(), fmt.Sprintf("q%d", n))
		require.NoError(t, err)

		want := 2 * n
		if want > DefaultMaxHistory {
			want = DefaultMaxHistory
		}
		history := s.History()
		require.Len(t, history, want)
		assert.Equal(t, adk.TurnAssistant, history[len(history)-1].Role)
		assert.Equal(t, fmt.Sprintf("echo: q%d", n), history[len(history)-1].Text)
		assert.Equal(t, adk.TurnHuman, history[len(history)-2].Role)
	}

	// the oldest retained exchange is q6
	assert.Equal(t, "q6", s.History()[0].Text)
	// the planner saw the history as it stood before each input
	assert.Len(t, p.calls[0].history, 0)
	assert.Len(t, p.calls[14].history, DefaultMaxHistory)
}

func TestTurnErrorLeavesHistory(t *testing.T) {
	p := &fakePlanner{answer: func(input string) (string, error) {
		if input == "bad" {
			return "", errors.New("boom")
		}
		return "ok", nil
	}}
	s := New(p)
	_, err := s.Turn(context.Background(), "good")
	require.NoError(t, err)

	_, err = s.Turn(context.Background(), "bad")
	require.Error(t, err)
	assert.Len(t, s.History(), 2)
}

func TestTurnEmptyOutputFallback(t *testing.T) {
	p := &fakePlanner{answer: func(string) (string, error) { return "  ", nil }}
	s := New(p)
	out, err := s.Turn(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, fallbackOutput, out)
}

func TestTurnRecoversPanic(t *testing.T) {
	p := &fakePlanner{answer: func(string) (string, error) { panic("kaboom") }}
	s := New(p)
	_, err := s.Turn(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestWithMaxHistory(t *testing.T) {
	s := New(&fakePlanner{}, WithMaxHistory(4))
	for i := 0; i < 5; i++ {
		_, err := s.Turn(context.Background(), "x")
		require.NoError(t, err)
	}
	assert.Len(t, s.History(), 4)
}

func TestRunConversation(t *testing.T) {
	p := &fakePlanner{}
	s := New(p)
	var out bytes.Buffer

	err := s.Run(context.Background(), strings.NewReader("laptops\n\n   \nheadphones\nquit\nnever read\n"), &out)
	require.NoError(t, err)

	require.Equal(t, 2, p.count())
	assert.Equal(t, "laptops", p.calls[0].input)
	assert.Equal(t, "headphones", p.calls[1].input)
	assert.Len(t, s.History(), 4)

	text := out.String()
	assert.Contains(t, text, "echo: laptops")
	assert.Contains(t, text, "🤖 Agent:")
	assert.Contains(t, text, "Thanks for watching the demo!")
	assert.NotContains(t, text, "never read")
}

func TestRunExitKeywordSkipsPlanner(t *testing.T) {
	for _, kw := range []string{"quit", "EXIT", "  bye "} {
		p := &fakePlanner{}
		var out bytes.Buffer
		require.NoError(t, New(p).Run(context.Background(), strings.NewReader(kw+"\n"), &out))
		assert.Equal(t, 0, p.count(), kw)
		assert.Contains(t, out.String(), "Thanks for watching the demo!")
	}
}

func TestRunErrorContinues(t *testing.T) {
	p := &fakePlanner{answer: func(input string) (string, error) {
		if input == "fail" {
			return "", errors.New("upstream exploded")
		}
		return "fine", nil
	}}
	s := New(p)
	var out bytes.Buffer

	require.NoError(t, s.Run(context.Background(), strings.NewReader("fail\nagain\n"), &out))
	assert.Equal(t, 2, p.count())
	assert.Contains(t, out.String(), "❌ Error: upstream exploded")
	assert.Contains(t, out.String(), "fine")
	assert.Len(t, s.History(), 2)
}

func TestRunEndOfInput(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, New(&fakePlanner{}).Run(context.Background(), strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "👋")
}

func TestRunInterrupt(t *testing.T) {
	// a pipe that never delivers input blocks the reader
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- New(&fakePlanner{}).Run(ctx, r, &out)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Contains(t, out.String(), "Demo ended!")
}

func TestRunInterruptDuringTurn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &fakePlanner{answer: func(string) (string, error) {
		cancel()
		return "", ctx.Err()
	}}
	var out bytes.Buffer
	require.NoError(t, New(p).Run(ctx, strings.NewReader("laptops\nmore\n"), &out))
	assert.Equal(t, 1, p.count())
	assert.Contains(t, out.String(), "Demo ended!")
	assert.NotContains(t, out.String(), "❌ Error")
}

func TestRunLongLineContinues(t *testing.T) {
	p := &fakePlanner{}
	var out bytes.Buffer
	long := strings.Repeat("a", 70*1024)

	err := New(p).Run(context.Background(), strings.NewReader(long+"\nlaptops\nquit\n"), &out)
	require.NoError(t, err)
	require.Equal(t, 2, p.count())
	assert.Equal(t, "laptops", p.calls[1].input)
}

func TestRunOverLimitLineReportedAndSkipped(t *testing.T) {
	p := &fakePlanner{}
	s := New(p)
	s.maxLine = 1024
	var out bytes.Buffer

	err := s.Run(context.Background(), strings.NewReader(strings.Repeat("b", 4096)+"\nlaptops\nquit\n"), &out)
	require.NoError(t, err)
	require.Equal(t, 1, p.count())
	assert.Equal(t, "laptops", p.calls[0].input)
	assert.Contains(t, out.String(), "❌ Error: input line too long")
	assert.Contains(t, out.String(), "Thanks for watching the demo!")
}
