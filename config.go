// Package productagent wires the product-search conversational agent from
// configuration.
package productagent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/adk"
	providers "github.com/universal-tool-calling-protocol/go-product-agent/src/providers/http"
	"github.com/universal-tool-calling-protocol/go-product-agent/src/repository"
	"github.com/universal-tool-calling-protocol/go-product-agent/src/search"
	"github.com/universal-tool-calling-protocol/go-product-agent/src/session"
	"github.com/universal-tool-calling-protocol/go-product-agent/src/tools"
)

// Planner backends.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Environment keys.
const (
	EnvConfigFile    = "PRODUCT_AGENT_CONFIG"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvProvider      = "PRODUCT_AGENT_PROVIDER"
	EnvModel         = "PRODUCT_AGENT_MODEL"
	EnvBaseURL       = "PRODUCT_SEARCH_BASE_URL"
	EnvTools         = "PRODUCT_AGENT_TOOLS"
	EnvHistory       = "PRODUCT_AGENT_HISTORY"
	EnvMaxIterations = "PRODUCT_AGENT_MAX_ITERATIONS"
	EnvVerbose       = "PRODUCT_AGENT_VERBOSE"
)

// ErrMissingAPIKey is returned by Preflight when the planner credential is absent.
var ErrMissingAPIKey = errors.New("planner API key not set")

// VariableNotFound is returned when a requested variable isn't present.
type VariableNotFound struct {
	VariableName string
}

func (e *VariableNotFound) Error() string {
	return fmt.Sprintf(
		"Variable %q not found. "+
			"Please add it to the environment variables or to your .env file.",
		e.VariableName,
	)
}

// VariablesConfig is the interface for any variable-loading strategy.
type VariablesConfig interface {
	// Load returns all variables available from this source.
	Load() (map[string]string, error)
	// Get returns a single variable value or an error if not present.
	Get(key string) (string, error)
}

// DotEnv implements VariablesConfig by reading a .env file. A missing file
// yields no variables.
type DotEnv struct {
	EnvFilePath string
}

func NewDotEnv(path string) *DotEnv {
	return &DotEnv{EnvFilePath: path}
}

// Load reads the .env file and returns a map of key→value.
func (d *DotEnv) Load() (map[string]string, error) {
	vars, err := godotenv.Read(d.EnvFilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	return vars, err
}

// Get loads the file and looks up a single key.
func (d *DotEnv) Get(key string) (string, error) {
	vars, err := d.Load()
	if err != nil {
		return "", err
	}
	if val, ok := vars[key]; ok {
		return val, nil
	}
	return "", &VariableNotFound{VariableName: key}
}

// Config holds the resolved startup settings.
type Config struct {
	Provider        string   `yaml:"provider"`
	Model           string   `yaml:"model"`
	AnthropicAPIKey string   `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string   `yaml:"openai_api_key"`
	OpenAIBaseURL   string   `yaml:"openai_base_url"`
	BaseURL         string   `yaml:"base_url"`
	EnabledTools    []string `yaml:"tools"`
	HistoryLimit    int      `yaml:"history"`
	MaxIterations   int      `yaml:"max_iterations"`
	Verbose         bool     `yaml:"verbose"`

	// Endpoints overrides the HTTP endpoint of individual search tools,
	// keyed by tool name.
	Endpoints map[string]*providers.HttpProvider `yaml:"endpoints"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Provider:      ProviderAnthropic,
		BaseURL:       search.DefaultBaseURL,
		EnabledTools:  []string{search.V1ToolName, search.V3ToolName},
		HistoryLimit:  session.DefaultMaxHistory,
		MaxIterations: adk.DefaultMaxIterations,
	}
}

type loadOptions struct {
	configFile string
	sources    []VariablesConfig
	variables  map[string]string
}

// LoadOption customizes LoadConfig.
type LoadOption func(*loadOptions)

// WithConfigFile reads a YAML config file instead of the one named by
// PRODUCT_AGENT_CONFIG.
func WithConfigFile(path string) LoadOption {
	return func(o *loadOptions) { o.configFile = path }
}

// WithVariablesFrom replaces the default .env source.
func WithVariablesFrom(sources ...VariablesConfig) LoadOption {
	return func(o *loadOptions) { o.sources = sources }
}

// WithVariables sets explicit values that take precedence over every source.
func WithVariables(vars map[string]string) LoadOption {
	return func(o *loadOptions) { o.variables = vars }
}

// LoadConfig resolves settings from defaults, an optional YAML file, the
// configured variable sources and finally the process environment.
func LoadConfig(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{
		configFile: os.Getenv(EnvConfigFile),
		sources:    []VariablesConfig{NewDotEnv(".env")},
	}
	for _, opt := range opts {
		opt(o)
	}

	cfg := DefaultConfig()
	if o.configFile != "" {
		data, err := os.ReadFile(o.configFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", o.configFile, err)
		}
	}

	vars := map[string]string{}
	for _, src := range o.sources {
		loaded, err := src.Load()
		if err != nil {
			return nil, fmt.Errorf("load variables: %w", err)
		}
		for k, v := range loaded {
			vars[k] = v
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := o.variables[key]; ok {
			return v, true
		}
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}

	if err := cfg.apply(lookup); err != nil {
		return nil, err
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return cfg, nil
}

func (c *Config) apply(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvProvider:      &c.Provider,
		EnvModel:         &c.Model,
		EnvAnthropicKey:  &c.AnthropicAPIKey,
		EnvOpenAIKey:     &c.OpenAIAPIKey,
		EnvOpenAIBaseURL: &c.OpenAIBaseURL,
		EnvBaseURL:       &c.BaseURL,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup(EnvTools); ok {
		c.EnabledTools = splitList(v)
	}
	ints := map[string]*int{
		EnvHistory:       &c.HistoryLimit,
		EnvMaxIterations: &c.MaxIterations,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := cast.ToIntE(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	if v, ok := lookup(EnvVerbose); ok && strings.TrimSpace(v) != "" {
		b, err := cast.ToBoolE(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvVerbose, err)
		}
		c.Verbose = b
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// APIKeyVariable names the environment variable holding the credential for
// the selected provider.
func (c *Config) APIKeyVariable() string {
	if c.Provider == ProviderOpenAI {
		return EnvOpenAIKey
	}
	return EnvAnthropicKey
}

// APIKey returns the credential for the selected provider.
func (c *Config) APIKey() string {
	if c.Provider == ProviderOpenAI {
		return strings.TrimSpace(c.OpenAIAPIKey)
	}
	return strings.TrimSpace(c.AnthropicAPIKey)
}

// Preflight checks the startup preconditions. A missing credential is
// reported as ErrMissingAPIKey.
func (c *Config) Preflight() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported planner provider %q", c.Provider)
	}
	if c.APIKey() == "" {
		return fmt.Errorf("%w: %s environment variable not set", ErrMissingAPIKey, c.APIKeyVariable())
	}
	if c.BaseURL == "" {
		return errors.New("product search base URL must not be empty")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive, got %d", c.HistoryLimit)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	return nil
}

// Catalog builds every search tool known to the agent, enabled or not, with
// any configured endpoint overrides applied and validated.
func (c *Config) Catalog(opts ...search.Option) ([]tools.Tool, error) {
	ctors := []struct {
		name  string
		build func(string, ...search.Option) *search.Adapter
	}{
		{search.V1ToolName, search.NewV1},
		{search.V3ToolName, search.NewV3},
	}
	for name := range c.Endpoints {
		known := false
		for _, ctor := range ctors {
			known = known || ctor.name == name
		}
		if !known {
			return nil, fmt.Errorf("endpoint override: %w: %s", repository.ErrUnknownTool, name)
		}
	}

	catalog := make([]tools.Tool, 0, len(ctors))
	for _, ctor := range ctors {
		toolOpts := append(append([]search.Option(nil), opts...), search.WithEndpoint(c.Endpoints[ctor.name]))
		a := ctor.build(c.BaseURL, toolOpts...)
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("endpoint for %s: %w", ctor.name, err)
		}
		catalog = append(catalog, a)
	}
	return catalog, nil
}
