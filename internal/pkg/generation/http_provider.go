package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SvenKoller/RenderKeep/internal/pkg/env"
)

// HTTPProvider calls the external render service over plain HTTP. The
// provider protocol is a single POST with the prompt; the response body is
// the finished image.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProviderFromEnv builds the provider from environment settings.
func NewHTTPProviderFromEnv() *HTTPProvider {
	return &HTTPProvider{
		baseURL: env.GetEnv("RENDER_PROVIDER_URL", "http://localhost:9090"),
		apiKey:  env.GetEnv("RENDER_PROVIDER_API_KEY", ""),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type providerPayload struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style,omitempty"`
}

func (p *HTTPProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(providerPayload{Prompt: req.Prompt, Style: req.Style})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/render", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("render provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render provider returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read render response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return &Result{Data: data, ContentType: contentType}, nil
}
