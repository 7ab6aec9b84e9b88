// Package search implements the product search tools backed by the remote
// catalog API. Both versions share one Adapter; v3 additionally accepts the
// tri-state in_stock filter.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/json"
	base "github.com/universal-tool-calling-protocol/go-product-agent/src/providers/base"
	providers "github.com/universal-tool-calling-protocol/go-product-agent/src/providers/http"
	"github.com/universal-tool-calling-protocol/go-product-agent/src/tools"
	transports "github.com/universal-tool-calling-protocol/go-product-agent/src/transports/http"
)

const (
	DefaultBaseURL = "https://product-search-mcp-api.replit.app"

	V1ToolName = "search_products_v1"
	V3ToolName = "search_products_v3"
)

// Caller issues a tool request against a provider and returns the raw body.
// *transports.HttpClientTransport satisfies it.
type Caller interface {
	CallTool(ctx context.Context, toolName string, args map[string]any, p base.Provider) ([]byte, error)
}

// SearchQuery is the structured form of a product search. A nil InStock means
// no stock filter and is never sent to the server.
type SearchQuery struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	InStock  *bool  `json:"in_stock,omitempty"`
}

// Bool returns a pointer to b, for building SearchQuery.InStock.
func Bool(b bool) *bool { return &b }

// Adapter turns SearchQuery values into calls against one version of the
// search API. The zero value is not usable; build one with NewV1 or NewV3.
type Adapter struct {
	name        string
	version     string
	description string
	stockFilter bool

	provider  *providers.HttpProvider
	transport Caller
	trace     io.Writer
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTransport overrides the transport used to reach the API.
func WithTransport(c Caller) Option {
	return func(a *Adapter) {
		if c != nil {
			a.transport = c
		}
	}
}

// WithTrace sets the writer that receives the one-line call trace.
func WithTrace(w io.Writer) Option {
	return func(a *Adapter) {
		a.trace = w
	}
}

// WithProvider replaces the endpoint description entirely.
func WithProvider(p *providers.HttpProvider) Option {
	return func(a *Adapter) {
		if p != nil {
			a.provider = p
		}
	}
}

// WithEndpoint overlays the non-zero fields of o on the adapter's endpoint,
// e.g. extra headers or a longer timeout from configuration.
func WithEndpoint(o *providers.HttpProvider) Option {
	return func(a *Adapter) {
		a.provider.Merge(o)
	}
}

// NewV1 returns the basic search tool backed by POST {baseURL}/v1/products/search.
func NewV1(baseURL string, opts ...Option) *Adapter {
	return newAdapter(V1ToolName, "v1", false, baseURL, v1Description, opts)
}

// NewV3 returns the inventory-aware search tool backed by
// POST {baseURL}/v3/products/search.
func NewV3(baseURL string, opts ...Option) *Adapter {
	return newAdapter(V3ToolName, "v3", true, baseURL, v3Description, opts)
}

func newAdapter(name, version string, stockFilter bool, baseURL, desc string, opts []Option) *Adapter {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	url := strings.TrimRight(baseURL, "/") + "/" + version + "/products/search"
	a := &Adapter{
		name:        name,
		version:     version,
		description: desc,
		stockFilter: stockFilter,
		provider:    providers.NewHttpProvider(name, url),
		trace:       io.Discard,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.transport == nil {
		a.transport = transports.NewHttpClientTransport(nil)
	}
	if a.trace == nil {
		a.trace = io.Discard
	}
	return a
}

const v1Description = `Search for products in the v1 database (basic search).
Returns JSON search results from the v1 API.`

const v3Description = `Search for products in the v3 database with inventory filtering (newer version).
Returns JSON search results from the v3 API.`

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Description() string { return a.description }

// Version is the API version segment, "v1" or "v3".
func (a *Adapter) Version() string { return a.version }

// URL is the endpoint the adapter posts to.
func (a *Adapter) URL() string { return a.provider.URL }

// Validate checks the endpoint so bad configuration fails at startup rather
// than on the first search.
func (a *Adapter) Validate() error { return a.provider.Validate() }

func (a *Adapter) Inputs() tools.ToolInputOutputSchema {
	props := map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": "The search query for products (e.g., 'laptop', 'chair')",
		},
		"category": map[string]interface{}{
			"type":        "string",
			"description": "Product category - 'electronics', 'furniture', or empty string for all categories",
			"default":     "",
		},
	}
	if a.stockFilter {
		props["in_stock"] = map[string]interface{}{
			"type":        "boolean",
			"description": "Filter by inventory status - true for in-stock only, false for out-of-stock only, omit for all products",
		}
	}
	return tools.ToolInputOutputSchema{
		Type:       "object",
		Title:      a.name,
		Properties: props,
		Required:   []string{"query"},
	}
}

// Call decodes planner-supplied arguments and runs the search.
func (a *Adapter) Call(ctx context.Context, args map[string]interface{}) string {
	q, err := a.decode(args)
	if err != nil {
		return fmt.Sprintf("Error calling API %s: %v", a.version, err)
	}
	return a.Search(ctx, q)
}

func (a *Adapter) decode(args map[string]interface{}) (SearchQuery, error) {
	var q SearchQuery
	var err error
	if q.Query, err = tools.StringArg(args, "query"); err != nil {
		return q, err
	}
	if q.Category, err = tools.StringArg(args, "category"); err != nil {
		return q, err
	}
	if a.stockFilter {
		if q.InStock, err = tools.OptionalBoolArg(args, "in_stock"); err != nil {
			return q, err
		}
	}
	return q, nil
}

// Payload is the request body sent for q. in_stock is present only when the
// adapter supports it and q sets it.
func (a *Adapter) Payload(q SearchQuery) map[string]any {
	payload := map[string]any{
		"query":    q.Query,
		"category": q.Category,
	}
	if a.stockFilter && q.InStock != nil {
		payload["in_stock"] = *q.InStock
	}
	return payload
}

// Search posts q to the API and returns the indented JSON response, or an
// error description. It never returns an error value.
func (a *Adapter) Search(ctx context.Context, q SearchQuery) string {
	a.traceCall(q)

	body, err := a.transport.CallTool(ctx, a.name, a.Payload(q), a.provider)
	if err != nil {
		var se *transports.StatusError
		if errors.As(err, &se) {
			return fmt.Sprintf("Error: API %s returned status code %d", a.version, se.StatusCode)
		}
		return fmt.Sprintf("Error calling API %s: %v", a.version, err)
	}

	out, err := json.Reindent(body)
	if err != nil {
		return fmt.Sprintf("Error calling API %s: invalid JSON response: %v", a.version, err)
	}
	return out
}

func (a *Adapter) traceCall(q SearchQuery) {
	if !a.stockFilter {
		fmt.Fprintf(a.trace, "\n📞 Calling %s API: query='%s', category='%s'\n", a.version, q.Query, q.Category)
		return
	}
	stock := "unset"
	if q.InStock != nil {
		stock = fmt.Sprintf("%t", *q.InStock)
	}
	fmt.Fprintf(a.trace, "\n📞 Calling %s API: query='%s', category='%s', in_stock=%s\n", a.version, q.Query, q.Category, stock)
}
