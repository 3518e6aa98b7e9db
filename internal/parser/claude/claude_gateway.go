package claude

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"docparse/internal/config"
	"docparse/internal/parser"
	"docparse/internal/port"
)

const (
	providerName = "claude"
	apiURL       = "https://api.anthropic.com/v1/messages"
	apiVersion   = "2023-06-01"
	defaultModel = "claude-sonnet-4-20250514"
)

// jsonOnlySuffix is appended to the system prompt when a JSON reply is
// requested; the Messages API has no response_format switch.
const jsonOnlySuffix = "\n\nRespond with a single JSON object and nothing else."

// Gateway implements port.Gateway using Anthropic's Messages API.
type Gateway struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// Factory is the parser.ProviderFactory for Claude.
func Factory(cfg *config.GatewayConfig) (port.Gateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("claude: api key is required")
	}
	return NewGateway(cfg), nil
}

// NewGateway creates a Claude gateway from a provider config.
func NewGateway(cfg *config.GatewayConfig) *Gateway {
	endpoint := apiURL
	if cfg.BaseURL != "" {
		endpoint = strings.TrimRight(cfg.BaseURL, "/") + "/v1/messages"
	}
	return newGateway(cfg, endpoint)
}

// NewGatewayWithEndpoint creates a gateway pointing at a custom API endpoint (for testing).
func NewGatewayWithEndpoint(cfg *config.GatewayConfig, endpoint string) *Gateway {
	return newGateway(cfg, endpoint)
}

func newGateway(cfg *config.GatewayConfig, endpoint string) *Gateway {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Gateway{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout()},
	}
}

func (g *Gateway) Complete(ctx context.Context, in port.CompletionRequest) (*port.Completion, error) {
	system := in.Instructions
	if in.JSONOutput {
		system += jsonOnlySuffix
	}

	reqBody := map[string]interface{}{
		"model":      g.model,
		"max_tokens": 16384,
		"system":     system,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": contentBlocks(in),
			},
		},
	}
	if in.Deterministic {
		reqBody["temperature"] = 0
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, parser.NewBackendError(providerName, 0, fmt.Errorf("calling anthropic API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, parser.NewBackendError(providerName, resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, parser.Truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parser.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, parser.NewRateLimitError(providerName, baseErr, retryAfter)
		}
		return nil, parser.NewBackendError(providerName, resp.StatusCode, baseErr)
	}

	return g.parseResponse(respBody)
}

func contentBlocks(in port.CompletionRequest) []map[string]interface{} {
	if len(in.Image) > 0 {
		return []map[string]interface{}{
			{
				"type": "image",
				"source": map[string]interface{}{
					"type":       "base64",
					"media_type": in.MimeType,
					"data":       base64.StdEncoding.EncodeToString(in.Image),
				},
			},
		}
	}
	return []map[string]interface{}{
		{
			"type": "text",
			"text": in.Text,
		},
	}
}

// messagesResponse models the subset of the Messages API response we read.
type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (g *Gateway) parseResponse(body []byte) (*port.Completion, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, parser.NewBackendError(providerName, http.StatusOK, fmt.Errorf("unmarshaling response: %w", err))
	}

	out := &port.Completion{Model: g.model}
	if resp.Model != "" {
		out.Model = resp.Model
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.Content = block.Text
			break
		}
	}
	return out, nil
}
