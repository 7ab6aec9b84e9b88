package search

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/json"
	base "github.com/universal-tool-calling-protocol/go-product-agent/src/providers/base"
	providers "github.com/universal-tool-calling-protocol/go-product-agent/src/providers/http"
	transports "github.com/universal-tool-calling-protocol/go-product-agent/src/transports/http"
)

// recordingServer answers every request with status and body and records
// the decoded request payload and path.
func recordingServer(t *testing.T, status int, body string) (*httptest.Server, *map[string]any, *string) {
	t.Helper()
	var payload map[string]any
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		payload = map[string]any{}
		_ = json.Unmarshal(raw, &payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &payload, &path
}

func TestSearchV1EndToEnd(t *testing.T) {
	srv, payload, path := recordingServer(t, http.StatusOK, `{"results": []}`)
	a := NewV1(srv.URL)

	got := a.Search(context.Background(), SearchQuery{Query: "laptops"})

	assert.Equal(t, "{\n  \"results\": []\n}", got)
	assert.Equal(t, "/v1/products/search", *path)
	assert.Equal(t, map[string]any{"query": "laptops", "category": ""}, *payload)
}

func TestSearchV3InStockOmission(t *testing.T) {
	cases := []struct {
		name    string
		inStock *bool
		want    map[string]any
	}{
		{name: "unset", inStock: nil, want: map[string]any{"query": "laptop", "category": "electronics"}},
		{name: "true", inStock: Bool(true), want: map[string]any{"query": "laptop", "category": "electronics", "in_stock": true}},
		{name: "false", inStock: Bool(false), want: map[string]any{"query": "laptop", "category": "electronics", "in_stock": false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, payload, path := recordingServer(t, http.StatusOK, `{"results":[{"name":"X1"}]}`)
			a := NewV3(srv.URL)
			out := a.Search(context.Background(), SearchQuery{Query: "laptop", Category: "electronics", InStock: tc.inStock})
			assert.Contains(t, out, `"name": "X1"`)
			assert.Equal(t, "/v3/products/search", *path)
			assert.Equal(t, tc.want, *payload)
		})
	}
}

func TestSearchV1IgnoresInStock(t *testing.T) {
	a := NewV1("https://example.com")
	p := a.Payload(SearchQuery{Query: "chair", InStock: Bool(true)})
	_, ok := p["in_stock"]
	assert.False(t, ok)
}

func TestSearchNon200ReturnsStatusString(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusCreated} {
		for _, ctor := range []func(string, ...Option) *Adapter{NewV1, NewV3} {
			srv, _, _ := recordingServer(t, status, `{"detail":"nope"}`)
			a := ctor(srv.URL)
			got := a.Search(context.Background(), SearchQuery{Query: "desk"})
			assert.Contains(t, got, strconv.Itoa(status))
			assert.Contains(t, got, "Error: API "+a.Version()+" returned status code")
		}
	}
}

type failingCaller struct{ err error }

func (f failingCaller) CallTool(context.Context, string, map[string]any, base.Provider) ([]byte, error) {
	return nil, f.err
}

func TestSearchTransportFaultReturnsString(t *testing.T) {
	faults := []error{
		context.DeadlineExceeded,
		errors.New("dial tcp: lookup product-search.invalid: no such host"),
		errors.New("read: connection reset by peer"),
	}
	for _, fault := range faults {
		a := NewV3("https://example.com", WithTransport(failingCaller{err: fault}))
		got := a.Search(context.Background(), SearchQuery{Query: "sofa"})
		assert.Equal(t, "Error calling API v3: "+fault.Error(), got)
	}
}

func TestSearchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got := NewV1(url).Search(context.Background(), SearchQuery{Query: "lamp"})
	assert.Contains(t, got, "Error calling API v1:")
}

func TestSearchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := providers.NewHttpProvider(V1ToolName, srv.URL+"/v1/products/search")
	p.Timeout = 50 * time.Millisecond
	got := NewV1(srv.URL, WithProvider(p)).Search(context.Background(), SearchQuery{Query: "lamp"})
	assert.Contains(t, got, "Error calling API v1:")
	assert.Contains(t, got, "deadline exceeded")
}

func TestSearchMalformedBody(t *testing.T) {
	srv, _, _ := recordingServer(t, http.StatusOK, `<html>oops</html>`)
	got := NewV1(srv.URL).Search(context.Background(), SearchQuery{Query: "lamp"})
	assert.Contains(t, got, "Error calling API v1:")
}

func TestCallDecodesArguments(t *testing.T) {
	srv, payload, _ := recordingServer(t, http.StatusOK, `{"results":[]}`)
	a := NewV3(srv.URL)

	out := a.Call(context.Background(), map[string]interface{}{"query": "chair", "category": "furniture", "in_stock": false})
	assert.Equal(t, "{\n  \"results\": []\n}", out)
	assert.Equal(t, map[string]any{"query": "chair", "category": "furniture", "in_stock": false}, *payload)

	out = a.Call(context.Background(), map[string]interface{}{"query": "chair", "in_stock": nil})
	require.NotContains(t, out, "Error")
	assert.Equal(t, map[string]any{"query": "chair", "category": ""}, *payload)
}

func TestCallBadArgument(t *testing.T) {
	a := NewV3("https://example.com", WithTransport(failingCaller{err: errors.New("unreachable")}))
	out := a.Call(context.Background(), map[string]interface{}{"query": "chair", "in_stock": "sometimes"})
	assert.Contains(t, out, "Error calling API v3:")
	assert.Contains(t, out, "in_stock")
}

func TestTraceLine(t *testing.T) {
	var buf bytes.Buffer
	a := NewV3("https://example.com", WithTrace(&buf), WithTransport(failingCaller{err: errors.New("x")}))
	a.Search(context.Background(), SearchQuery{Query: "laptop", Category: "electronics", InStock: Bool(true)})
	assert.Contains(t, buf.String(), "Calling v3 API: query='laptop', category='electronics', in_stock=true")

	buf.Reset()
	a.Search(context.Background(), SearchQuery{Query: "laptop"})
	assert.Contains(t, buf.String(), "in_stock=unset")

	buf.Reset()
	v1 := NewV1("https://example.com", WithTrace(&buf), WithTransport(failingCaller{err: errors.New("x")}))
	v1.Search(context.Background(), SearchQuery{Query: "desk"})
	assert.Contains(t, buf.String(), "Calling v1 API: query='desk', category=''")
	assert.NotContains(t, buf.String(), "in_stock")
}

func TestInputsSchema(t *testing.T) {
	v1 := NewV1("").Inputs()
	v3 := NewV3("").Inputs()
	_, v1Stock := v1.Properties["in_stock"]
	_, v3Stock := v3.Properties["in_stock"]
	assert.False(t, v1Stock)
	assert.True(t, v3Stock)
	assert.Equal(t, []string{"query"}, v3.Required)
	assert.Equal(t, DefaultBaseURL+"/v1/products/search", NewV1("").URL())
	assert.Equal(t, "https://x.test/v3/products/search", NewV3("https://x.test/").URL())
}

var _ Caller = (*transports.HttpClientTransport)(nil)

func TestWithEndpointOverride(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(srv.Close)

	a := NewV1("http://unused.invalid", WithEndpoint(&providers.HttpProvider{
		URL:     srv.URL + "/v1/products/search",
		Headers: map[string]string{"X-Api-Key": "secret"},
	}))
	require.NoError(t, a.Validate())
	assert.Equal(t, "{\n  \"results\": []\n}", a.Search(context.Background(), SearchQuery{Query: "laptops"}))
	assert.Equal(t, "secret", gotKey)

	bad := NewV3("", WithEndpoint(&providers.HttpProvider{URL: "ftp://catalog"}))
	assert.Error(t, bad.Validate())
}
