package zai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/realtime"
)

// DefaultAPIKeyEnvVar is the environment variable name for the Z.ai API key.
const DefaultAPIKeyEnvVar = "ZAI_API_KEY"

// ErrAPIKeyNotFound is returned when the API key environment variable is not set.
var ErrAPIKeyNotFound = errors.New("zai: ZAI_API_KEY environment variable not set")

// NewFromEnv creates a new Z.ai provider using the ZAI_API_KEY environment variable.
//
//	provider, err := zai.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := core.NewClient(provider)
func NewFromEnv(opts ...Option) (*Zai, error) {
	apiKey := os.Getenv(DefaultAPIKeyEnvVar)
	if apiKey == "" {
		return nil, ErrAPIKeyNotFound
	}
	return New(apiKey, opts...), nil
}

// Zai is the provider implementation for the Z.ai GLM API.
// Zai is safe for concurrent use.
type Zai struct {
	config Config
}

// New creates a new Z.ai provider with the given API key and options.
func New(apiKey string, opts ...Option) *Zai {
	cfg := Config{
		APIKey:      core.NewSecret(apiKey),
		BaseURL:     DefaultBaseURL,
		RealtimeURL: DefaultRealtimeURL,
		HTTPClient:  http.DefaultClient,
		Timeout:     DefaultTimeout,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Zai{config: cfg}
}

// ID returns the provider identifier.
func (p *Zai) ID() string {
	return "zai"
}

// Models returns the list of available models.
func (p *Zai) Models() []core.ModelInfo {
	result := make([]core.ModelInfo, len(models))
	copy(result, models)
	return result
}

// Supports reports whether any model of the provider supports the feature.
func (p *Zai) Supports(feature core.Feature) bool {
	for _, m := range models {
		if m.HasCapability(feature) {
			return true
		}
	}
	return false
}

// buildHeaders constructs the HTTP headers for an API request.
func (p *Zai) buildHeaders() http.Header {
	headers := make(http.Header)

	headers.Set("Authorization", "Bearer "+p.config.APIKey.Expose())
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept-Language", "en-US,en")

	for key, values := range p.config.Headers {
		for _, v := range values {
			headers.Add(key, v)
		}
	}

	return headers
}

// Chat sends a non-streaming chat request.
func (p *Zai) Chat(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	return p.doChat(ctx, req)
}

// StreamChat sends a streaming chat request, invoking fn for every chunk.
func (p *Zai) StreamChat(ctx context.Context, req *core.ChatRequest, fn core.StreamFunc) (*core.ChatResponse, error) {
	return p.doStreamChat(ctx, req, fn)
}

// Realtime returns an unconnected realtime session for model, authenticated
// with the provider's key. Call Connect on the result to open it.
func (p *Zai) Realtime(model core.ModelID, opts ...realtime.Option) (*realtime.Session, error) {
	info := GetModelInfo(model)
	if info == nil || !info.HasCapability(core.FeatureRealtime) {
		return nil, fmt.Errorf("%w: model %s does not support realtime", core.ErrNotSupported, model)
	}

	base := []realtime.Option{
		realtime.WithURL(p.config.RealtimeURL),
		realtime.WithAPIKey(p.config.APIKey),
		realtime.WithModel(string(model)),
	}
	for key, values := range p.config.Headers {
		for _, v := range values {
			base = append(base, realtime.WithHeader(key, v))
		}
	}
	return realtime.NewSession(append(base, opts...)...), nil
}

// Compile-time checks that Zai implements required interfaces.
var _ core.Provider = (*Zai)(nil)
