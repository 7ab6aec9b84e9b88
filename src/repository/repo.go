package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/tools"
)

// ErrUnknownTool is returned when a name does not match any registered tool.
var ErrUnknownTool = errors.New("unknown tool")

// Registry is the fixed, ordered set of tools offered to the planner for one
// run. It is built once at startup and never mutated afterwards, so it is safe
// to share between goroutines.
type Registry struct {
	tools  []tools.Tool
	byName map[string]tools.Tool
}

// New builds a Registry from catalog, keeping only the tools whose names
// appear in enabled. An empty enabled set keeps the whole catalog. The
// resulting order is the catalog order.
func New(enabled []string, catalog ...tools.Tool) (*Registry, error) {
	known := make(map[string]tools.Tool, len(catalog))
	for _, t := range catalog {
		if t == nil {
			return nil, errors.New("nil tool in catalog")
		}
		name := t.Name()
		if strings.TrimSpace(name) == "" {
			return nil, errors.New("tool must have a name")
		}
		if _, exists := known[name]; exists {
			return nil, fmt.Errorf("tool %q registered twice", name)
		}
		known[name] = t
	}

	want := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
		}
		want[name] = true
	}

	r := &Registry{byName: make(map[string]tools.Tool, len(catalog))}
	for _, t := range catalog {
		if len(want) > 0 && !want[t.Name()] {
			continue
		}
		r.tools = append(r.tools, t)
		r.byName[t.Name()] = t
	}
	return r, nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (tools.Tool, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t, nil
}

// Tools returns the registered tools in order.
func (r *Registry) Tools() []tools.Tool {
	return append([]tools.Tool(nil), r.tools...)
}

// Names returns the registered tool names in order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.Name()
	}
	return out
}

// Definitions describes every registered tool for a planner request.
func (r *Registry) Definitions() []tools.Definition {
	out := make([]tools.Definition, len(r.tools))
	for i, t := range r.tools {
		out[i] = tools.Describe(t)
	}
	return out
}

func (r *Registry) Len() int { return len(r.tools) }
