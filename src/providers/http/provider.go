package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	. "github.com/universal-tool-calling-protocol/go-product-agent/src/providers/base"
)

// DefaultTimeout bounds a single round trip to a search endpoint.
const DefaultTimeout = 10 * time.Second

// HttpProvider describes a remote JSON endpoint backing a tool. It doubles as
// the per-tool endpoint override read from the YAML config, where timeout is
// a duration string such as "5s".
type HttpProvider struct {
	BaseProvider `yaml:",inline"`
	HTTPMethod   string            `yaml:"http_method,omitempty"` // defaults to POST
	URL          string            `yaml:"url,omitempty"`
	ContentType  string            `yaml:"content_type,omitempty"` // default application/json
	Headers      map[string]string `yaml:"headers,omitempty"`
	Timeout      time.Duration     `yaml:"timeout,omitempty"`
}

// NewHttpProvider returns a POST provider for url with the default timeout.
func NewHttpProvider(name, url string) *HttpProvider {
	return &HttpProvider{
		BaseProvider: BaseProvider{Name: name, ProviderType: ProviderHTTP},
		HTTPMethod:   http.MethodPost,
		URL:          url,
		ContentType:  "application/json",
		Timeout:      DefaultTimeout,
	}
}

// Validate fills defaults and rejects providers that cannot be called.
func (p *HttpProvider) Validate() error {
	if strings.TrimSpace(p.URL) == "" {
		return fmt.Errorf("provider %q: url is required", p.Name)
	}
	if !(strings.HasPrefix(p.URL, "https://") || strings.HasPrefix(p.URL, "http://")) {
		return fmt.Errorf("provider %q: unsupported url %s", p.Name, p.URL)
	}
	if p.ProviderType == "" {
		p.ProviderType = ProviderHTTP
	}
	if p.HTTPMethod == "" {
		p.HTTPMethod = http.MethodPost
	}
	if p.ContentType == "" {
		p.ContentType = "application/json"
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	return nil
}

// Merge overlays the non-zero fields of o onto p. Headers are merged key by
// key; the name and type of p are kept.
func (p *HttpProvider) Merge(o *HttpProvider) {
	if o == nil {
		return
	}
	if o.HTTPMethod != "" {
		p.HTTPMethod = strings.ToUpper(o.HTTPMethod)
	}
	if o.URL != "" {
		p.URL = o.URL
	}
	if o.ContentType != "" {
		p.ContentType = o.ContentType
	}
	if o.Timeout > 0 {
		p.Timeout = o.Timeout
	}
	if len(o.Headers) > 0 {
		merged := make(map[string]string, len(p.Headers)+len(o.Headers))
		for k, v := range p.Headers {
			merged[k] = v
		}
		for k, v := range o.Headers {
			merged[k] = v
		}
		p.Headers = merged
	}
}
