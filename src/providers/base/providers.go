package base

type ProviderType string

const (
	ProviderHTTP ProviderType = "http"
)

// Provider is implemented by all concrete provider types.
type Provider interface {
	// Type returns the discriminator.
	Type() ProviderType
}

// BaseProvider holds fields common to every provider.
type BaseProvider struct {
	Name         string       `yaml:"name,omitempty"`
	ProviderType ProviderType `yaml:"provider_type,omitempty"`
}

func (b *BaseProvider) Type() ProviderType {
	return b.ProviderType
}
