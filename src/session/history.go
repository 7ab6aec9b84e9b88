package session

import "github.com/universal-tool-calling-protocol/go-product-agent/src/adk"

// DefaultMaxHistory keeps the last ten exchanges.
const DefaultMaxHistory = 20

// Truncate returns the most recent maxLen turns of history in chronological
// order. The result never shares backing storage with history. A maxLen of
// zero or less disables the cap.
func Truncate(history []adk.Turn, maxLen int) []adk.Turn {
	start := 0
	if maxLen > 0 && len(history) > maxLen {
		start = len(history) - maxLen
	}
	out := make([]adk.Turn, len(history)-start)
	copy(out, history[start:])
	return out
}
