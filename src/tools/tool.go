package tools

import (
	"context"
	"fmt"

	"github.com/spf13/cast"
)

// ToolInputOutputSchema is the JSON schema fragment advertised for a tool's
// arguments.
type ToolInputOutputSchema struct {
	Type        string                 `json:"type" yaml:"type"`                                 // e.g. "object"
	Properties  map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"` // field schemas
	Required    []string               `json:"required,omitempty" yaml:"required,omitempty"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Title       string                 `json:"title,omitempty" yaml:"title,omitempty"`
}

// AsMap renders the schema the way chat completion APIs expect tool
// parameters.
func (s ToolInputOutputSchema) AsMap() map[string]interface{} {
	props := s.Properties
	if props == nil {
		props = map[string]interface{}{}
	}
	out := map[string]interface{}{
		"type":       s.Type,
		"properties": props,
	}
	if out["type"] == "" {
		out["type"] = "object"
	}
	if len(s.Required) > 0 {
		out["required"] = append([]string(nil), s.Required...)
	}
	return out
}

// Tool is a named capability exposed to the planner. Call never fails: any
// problem is folded into the returned text so the planner can narrate it.
type Tool interface {
	Name() string
	Description() string
	Inputs() ToolInputOutputSchema
	Call(ctx context.Context, args map[string]interface{}) string
}

// Definition is the out-of-band description of a tool sent along with a
// planner request.
type Definition struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Inputs      ToolInputOutputSchema `json:"inputs"`
}

// Describe returns the Definition for t.
func Describe(t Tool) Definition {
	return Definition{
		Name:        t.Name(),
		Description: t.Description(),
		Inputs:      t.Inputs(),
	}
}

// StringArg reads an optional string argument. Missing or null values yield "".
func StringArg(args map[string]interface{}, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", fmt.Errorf("argument %q: %w", key, err)
	}
	return s, nil
}

// OptionalBoolArg reads a tri-state boolean argument. A missing key or an
// explicit null yields nil, which callers treat as "no filter".
func OptionalBoolArg(args map[string]interface{}, key string) (*bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return nil, fmt.Errorf("argument %q: %w", key, err)
	}
	return &b, nil
}
