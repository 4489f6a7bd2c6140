// Package zai provides the Z.ai GLM provider for zai-go.
package zai

import (
	"net/http"
	"time"

	"github.com/petal-labs/zai-go/core"
)

// DefaultBaseURL is the default base URL for the Z.ai API.
const DefaultBaseURL = "https://open.bigmodel.cn/api/paas/v4"

// DefaultRealtimeURL is the default realtime WebSocket endpoint.
const DefaultRealtimeURL = "wss://open.bigmodel.cn/api/paas/v4/realtime"

// DefaultTimeout bounds non-streaming requests.
const DefaultTimeout = 60 * time.Second

// Config holds the configuration for the Z.ai provider.
type Config struct {
	// APIKey is the API key for authentication.
	APIKey core.Secret

	// BaseURL is the base URL for the API. Defaults to DefaultBaseURL.
	BaseURL string

	// RealtimeURL is the realtime endpoint. Defaults to DefaultRealtimeURL.
	RealtimeURL string

	// HTTPClient is the HTTP client to use for requests.
	HTTPClient *http.Client

	// Headers are additional headers to include in requests.
	Headers http.Header

	// Timeout bounds each non-streaming request. Streams are bounded only
	// by the caller's context.
	Timeout time.Duration
}

// Option is a functional option for configuring the Z.ai provider.
type Option func(*Config)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithRealtimeURL sets the realtime WebSocket endpoint.
func WithRealtimeURL(url string) Option {
	return func(c *Config) {
		c.RealtimeURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithHeaders sets additional headers to include in requests.
func WithHeaders(headers http.Header) Option {
	return func(c *Config) {
		c.Headers = headers
	}
}

// WithTimeout sets the request timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}
