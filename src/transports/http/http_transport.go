package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/json"
	. "github.com/universal-tool-calling-protocol/go-product-agent/src/providers/base"
	. "github.com/universal-tool-calling-protocol/go-product-agent/src/providers/http"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// HTTPDoer is implemented by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned when a provider answers with anything other than
// 200 OK.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider %s returned status code %d", e.Provider, e.StatusCode)
}

// Option configures an HttpClientTransport.
type Option func(*HttpClientTransport)

// WithHTTPClient overrides the client used to issue requests.
func WithHTTPClient(client HTTPDoer) Option {
	return func(t *HttpClientTransport) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// HttpClientTransport posts JSON payloads to HttpProvider endpoints.
type HttpClientTransport struct {
	httpClient HTTPDoer
	logger     func(format string, args ...interface{})
}

// NewHttpClientTransport constructs a new HttpClientTransport.
func NewHttpClientTransport(logger func(format string, args ...interface{}), opts ...Option) *HttpClientTransport {
	if logger == nil {
		logger = func(format string, args ...interface{}) {}
	}
	t := &HttpClientTransport{
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CallTool sends args as the JSON body of a request to the provider and
// returns the raw response body. The provider timeout bounds the whole round
// trip including reading the body.
func (t *HttpClientTransport) CallTool(ctx context.Context, toolName string, args map[string]any, p Provider) ([]byte, error) {
	hp, ok := p.(*HttpProvider)
	if !ok {
		return nil, errors.New("HttpTransport can only be used with HttpProvider")
	}
	if err := hp.Validate(); err != nil {
		return nil, err
	}

	if hp.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, hp.Timeout)
		defer cancel()
	}

	if args == nil {
		args = map[string]any{}
	}
	jsonData, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, hp.HTTPMethod, hp.URL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", hp.ContentType)
	for k, v := range hp.Headers {
		req.Header.Set(k, v)
	}

	t.logger("Calling tool %s: %s %s", toolName, hp.HTTPMethod, hp.URL)
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger("Error calling tool %s: %v", toolName, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		t.logger("Error response from %s: %s", hp.Name, resp.Status)
		return nil, &StatusError{Provider: hp.Name, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
