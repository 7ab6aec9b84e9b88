package productagent

import (
	"fmt"
	"io"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/adk"
	"github.com/universal-tool-calling-protocol/go-product-agent/src/repository"
	"github.com/universal-tool-calling-protocol/go-product-agent/src/search"
	"github.com/universal-tool-calling-protocol/go-product-agent/src/session"
	transports "github.com/universal-tool-calling-protocol/go-product-agent/src/transports/http"
)

// Agent is the set of components built from a Config.
type Agent struct {
	Config   *Config
	Registry *repository.Registry
	Planner  *adk.Planner

	logger func(format string, args ...interface{})
}

type agentOptions struct {
	trace        io.Writer
	logger       func(format string, args ...interface{})
	transport    search.Caller
	chatProvider adk.ChatProvider
}

// AgentOption customizes NewAgent.
type AgentOption func(*agentOptions)

// WithTrace sets where search adapters announce their calls.
func WithTrace(w io.Writer) AgentOption {
	return func(o *agentOptions) { o.trace = w }
}

// WithLogger sets the diagnostic logger shared by all components.
func WithLogger(logger func(format string, args ...interface{})) AgentOption {
	return func(o *agentOptions) { o.logger = logger }
}

// WithSearchTransport replaces the HTTP transport used by the search adapters.
func WithSearchTransport(c search.Caller) AgentOption {
	return func(o *agentOptions) { o.transport = c }
}

// WithChatProvider replaces the provider selected by Config.Provider.
func WithChatProvider(p adk.ChatProvider) AgentOption {
	return func(o *agentOptions) { o.chatProvider = p }
}

// NewAgent builds the registry and planner described by cfg. Preflight
// should have passed first.
func NewAgent(cfg *Config, opts ...AgentOption) (*Agent, error) {
	o := &agentOptions{}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = func(string, ...interface{}) {}
	}

	transport := o.transport
	if transport == nil {
		transport = transports.NewHttpClientTransport(logger)
	}
	searchOpts := []search.Option{search.WithTransport(transport)}
	if o.trace != nil {
		searchOpts = append(searchOpts, search.WithTrace(o.trace))
	}

	catalog, err := cfg.Catalog(searchOpts...)
	if err != nil {
		return nil, err
	}
	registry, err := repository.New(cfg.EnabledTools, catalog...)
	if err != nil {
		return nil, err
	}

	provider := o.chatProvider
	if provider == nil {
		if provider, err = cfg.newChatProvider(); err != nil {
			return nil, err
		}
	}

	planner, err := adk.NewPlanner(provider, registry,
		adk.WithModel(cfg.Model),
		adk.WithMaxIterations(cfg.MaxIterations),
		adk.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	logger("agent ready with tools %v", registry.Names())
	return &Agent{Config: cfg, Registry: registry, Planner: planner, logger: logger}, nil
}

func (c *Config) newChatProvider() (adk.ChatProvider, error) {
	switch c.Provider {
	case ProviderAnthropic:
		return adk.NewAnthropicProvider(c.APIKey(), option.WithMaxRetries(2)), nil
	case ProviderOpenAI:
		return adk.NewOpenAIProvider(c.APIKey(), c.OpenAIBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported planner provider %q", c.Provider)
	}
}

// NewSession starts a conversation bounded by the configured history limit.
func (a *Agent) NewSession(opts ...session.Option) *session.Session {
	base := []session.Option{
		session.WithMaxHistory(a.Config.HistoryLimit),
		session.WithLogger(a.logger),
	}
	return session.New(a.Planner, append(base, opts...)...)
}
