package adk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/json"
	"github.com/universal-tool-calling-protocol/go-product-agent/src/repository"
)

// Conversation roles stored in session history.
const (
	TurnHuman     = "human"
	TurnAssistant = "assistant"
)

// DefaultMaxIterations bounds the number of model round trips per Invoke.
const DefaultMaxIterations = 10

var (
	// ErrMaxIterations is returned when the model keeps requesting tools past
	// the configured bound.
	ErrMaxIterations = errors.New("tool loop exceeded maximum iterations")

	// ErrNoProvider is returned by NewPlanner when no ChatProvider is given.
	ErrNoProvider = errors.New("chat provider must not be nil")
)

// Turn is one message of conversation history.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type plannerConfig struct {
	model         string
	systemPrompt  string
	maxIterations int
	logger        func(format string, args ...interface{})
}

// PlannerOption mutates the configuration used to construct a Planner.
type PlannerOption func(*plannerConfig)

// WithModel selects the model name passed to the provider.
func WithModel(model string) PlannerOption {
	return func(cfg *plannerConfig) {
		if strings.TrimSpace(model) != "" {
			cfg.model = model
		}
	}
}

// WithSystemPrompt replaces the generated system prompt.
func WithSystemPrompt(prompt string) PlannerOption {
	return func(cfg *plannerConfig) {
		if strings.TrimSpace(prompt) != "" {
			cfg.systemPrompt = prompt
		}
	}
}

// WithMaxIterations overrides DefaultMaxIterations.
func WithMaxIterations(n int) PlannerOption {
	return func(cfg *plannerConfig) {
		if n > 0 {
			cfg.maxIterations = n
		}
	}
}

// WithLogger sets a logger for iteration and dispatch tracing.
func WithLogger(logger func(format string, args ...interface{})) PlannerOption {
	return func(cfg *plannerConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Planner drives a hosted model through a tool-calling loop over the tools in
// a Registry.
type Planner struct {
	provider      ChatProvider
	registry      *repository.Registry
	model         string
	systemPrompt  string
	maxIterations int
	logger        func(format string, args ...interface{})
}

// NewPlanner builds a Planner. A nil registry offers no tools.
func NewPlanner(provider ChatProvider, registry *repository.Registry, opts ...PlannerOption) (*Planner, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	if registry == nil {
		var err error
		if registry, err = repository.New(nil); err != nil {
			return nil, err
		}
	}
	cfg := &plannerConfig{
		maxIterations: DefaultMaxIterations,
		logger:        func(string, ...interface{}) {},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.systemPrompt == "" {
		cfg.systemPrompt = BuildSystemPrompt(registry.Definitions())
	}
	return &Planner{
		provider:      provider,
		registry:      registry,
		model:         cfg.model,
		systemPrompt:  cfg.systemPrompt,
		maxIterations: cfg.maxIterations,
		logger:        cfg.logger,
	}, nil
}

// Invoke answers input given the prior history. Tool calls requested by the
// model are executed sequentially; their results are fed back until the model
// replies without requesting tools. A truncated history may begin with an
// assistant turn; those leading turns are dropped so the conversation sent to
// the model always opens with the user.
func (p *Planner) Invoke(ctx context.Context, input string, history []Turn) (string, error) {
	for len(history) > 0 && history[0].Role == TurnAssistant {
		history = history[1:]
	}
	msgs := make([]Message, 0, len(history)+1)
	for _, t := range history {
		role := RoleUser
		if t.Role == TurnAssistant {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: t.Text})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: input})

	defs := p.registry.Definitions()
	for i := 0; i < p.maxIterations; i++ {
		p.logger("planner iteration %d", i+1)
		resp, err := p.provider.CreateCompletion(ctx, p.model, p.systemPrompt, msgs, defs)
		if err != nil {
			return "", fmt.Errorf("planner request failed: %w", err)
		}
		if resp == nil {
			return "", errors.New("planner returned no message")
		}
		if len(resp.ToolCalls) == 0 {
			return strings.TrimSpace(resp.Content), nil
		}

		msgs = append(msgs, *resp)
		for _, call := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			msgs = append(msgs, Message{
				Role:       RoleTool,
				Content:    p.dispatch(ctx, call),
				ToolCallID: call.ID,
			})
		}
	}
	return "", fmt.Errorf("%w (%d)", ErrMaxIterations, p.maxIterations)
}

func (p *Planner) dispatch(ctx context.Context, call ToolCall) string {
	p.logger("invoking tool %s with %s", call.Name, call.Arguments)
	tool, err := p.registry.Get(call.Name)
	if err != nil {
		p.logger("tool call error: %v", err)
		return "ERROR: " + err.Error()
	}
	args := map[string]interface{}{}
	if raw := strings.TrimSpace(call.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			p.logger("tool call error: %v", err)
			return fmt.Sprintf("ERROR: invalid arguments for %s: %v", call.Name, err)
		}
	}
	return tool.Call(ctx, args)
}
