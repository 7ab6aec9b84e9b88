package adk

import (
	"fmt"
	"strings"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/tools"
)

const personaPrompt = `You are a friendly and conversational AI assistant that can help with product searches.

You can:
- Chat naturally about any topic, be friendly, helpful, and engaging
- Answer questions about products, shopping, or general topics
- Search for products when users ask (extract query, category, and in_stock parameters)
- Compare products from different databases
- Provide recommendations and advice

Remember:
- Be conversational and warm, you're having a chat, not just executing commands
- Only use search tools when the user actually wants to search for products
- If users greet you, greet them back warmly
- Present search results in a clear, friendly format`

// BuildSystemPrompt renders the system instruction for the tools actually
// offered in this run.
func BuildSystemPrompt(defs []tools.Definition) string {
	var b strings.Builder
	b.WriteString(personaPrompt)
	b.WriteString("\n\n")
	if len(defs) == 0 {
		b.WriteString("No product search tools are available in this session; answer from general knowledge and say so if asked to search.")
		return b.String()
	}

	b.WriteString("You have access to product search tools:\n")
	stockFilter := false
	for _, d := range defs {
		summary := strings.SplitN(strings.TrimSpace(d.Description), "\n", 2)[0]
		b.WriteString(fmt.Sprintf("- %s: %s\n", d.Name, summary))
		if _, ok := d.Inputs.Properties["in_stock"]; ok {
			stockFilter = true
		}
	}
	b.WriteString("\nCategories available: 'electronics', 'furniture', or leave empty for all")
	if stockFilter {
		b.WriteString("\nFor in_stock: use true for available items, false for out-of-stock, and omit it for all products")
	}
	return b.String()
}
