package openai

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
	providerName = "openai"
	apiURL       = "https://api.openai.com/v1/chat/completions"
	defaultModel = "gpt-4o"
)

// Gateway implements port.Gateway using the OpenAI Chat Completions API.
// BaseURL lets it target any OpenAI-compatible server.
type Gateway struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// Factory is the parser.ProviderFactory for OpenAI.
func Factory(cfg *config.GatewayConfig) (port.Gateway, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, errors.New("openai: api key is required")
	}
	return NewGateway(cfg), nil
}

// NewGateway creates an OpenAI gateway from a provider config.
func NewGateway(cfg *config.GatewayConfig) *Gateway {
	endpoint := apiURL
	if cfg.BaseURL != "" {
		endpoint = strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
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
	messages := []map[string]interface{}{}
	if in.Instructions != "" {
		messages = append(messages, map[string]interface{}{
			"role":    "system",
			"content": in.Instructions,
		})
	}
	messages = append(messages, map[string]interface{}{
		"role":    "user",
		"content": userContent(in),
	})

	reqBody := map[string]interface{}{
		"model":                 g.model,
		"max_completion_tokens": 16384,
		"messages":              messages,
	}
	if in.Deterministic {
		reqBody["temperature"] = 0
	}
	if in.JSONOutput {
		reqBody["response_format"] = map[string]interface{}{
			"type": "json_object",
		}
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
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, parser.NewBackendError(providerName, 0, fmt.Errorf("calling openai API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, parser.NewBackendError(providerName, resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		baseErr := fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, parser.Truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parser.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, parser.NewRateLimitError(providerName, baseErr, retryAfter)
		}
		return nil, parser.NewBackendError(providerName, resp.StatusCode, baseErr)
	}

	return g.parseResponse(respBody, resp.StatusCode)
}

// userContent inlines the document: a plain string for text, an image_url
// block carrying a data URI for images.
func userContent(in port.CompletionRequest) interface{} {
	if len(in.Image) == 0 {
		return in.Text
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", in.MimeType, base64.StdEncoding.EncodeToString(in.Image))
	return []map[string]interface{}{
		{
			"type": "image_url",
			"image_url": map[string]interface{}{
				"url": dataURI,
			},
		},
	}
}

// chatResponse models the subset of the Chat Completions response we read.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (g *Gateway) parseResponse(body []byte, status int) (*port.Completion, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, parser.NewBackendError(providerName, status, fmt.Errorf("unmarshaling response: %w", err))
	}

	out := &port.Completion{Model: g.model}
	if resp.Model != "" {
		out.Model = resp.Model
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return out, nil
	}
	out.Content = *resp.Choices[0].Message.Content
	return out, nil
}
