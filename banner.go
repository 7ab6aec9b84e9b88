package productagent

import (
	"fmt"
	"io"
	"strings"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/search"
)

var heavyRule = strings.Repeat("=", 70)

// WriteBanner prints the startup greeting and demo hints.
func WriteBanner(w io.Writer) {
	fmt.Fprintln(w, heavyRule)
	fmt.Fprintln(w, "🤖 Product Search AI Agent - DEMO VERSION")
	fmt.Fprintln(w, heavyRule)
	fmt.Fprintln(w, "\n💬 I'm your friendly AI assistant! I can:")
	fmt.Fprintln(w, "   • Chat with you about anything")
	fmt.Fprintln(w, "   • Search for products when you need them")
	fmt.Fprintln(w, "   • Help with shopping advice and recommendations")
	fmt.Fprintln(w, "\n📋 DEMO SCRIPT:")
	fmt.Fprintf(w, "   Part 1: %s=%s - Try: 'Hello!' or 'Find me laptops'\n", EnvTools, search.V1ToolName)
	fmt.Fprintf(w, "   Part 2: %s=%s,%s - Try: 'Find laptops that are in stock'\n", EnvTools, search.V1ToolName, search.V3ToolName)
	fmt.Fprintln(w, "\nType 'quit' or 'exit' to end.")
	fmt.Fprintln(w)
}

// WriteMissingKey prints guidance for a missing planner credential.
func WriteMissingKey(w io.Writer, cfg *Config) {
	key := cfg.APIKeyVariable()
	fmt.Fprintf(w, "⚠️  WARNING: %s environment variable not set!\n", key)
	fmt.Fprintf(w, "Please set it with: export %s='your-api-key'\n\n", key)
}

// WriteReady prints the tool count once the agent is built.
func WriteReady(w io.Writer, a *Agent) {
	fmt.Fprintf(w, "✅ Agent initialized with %d tool(s)\n\n", a.Registry.Len())
}
