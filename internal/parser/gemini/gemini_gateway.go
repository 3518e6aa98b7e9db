package gemini

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
	providerName = "gemini"
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel = "gemini-2.0-flash"
)

// Gateway implements port.Gateway using Google's Gemini API.
type Gateway struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// Factory is the parser.ProviderFactory for Gemini.
func Factory(cfg *config.GatewayConfig) (port.Gateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	return NewGateway(cfg), nil
}

// NewGateway creates a Gemini gateway from a provider config.
func NewGateway(cfg *config.GatewayConfig) *Gateway {
	base := apiBaseURL
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}
	return newGateway(cfg, base, "")
}

// NewGatewayWithEndpoint creates a gateway pointing at a custom API endpoint (for testing).
func NewGatewayWithEndpoint(cfg *config.GatewayConfig, endpoint string) *Gateway {
	return newGateway(cfg, "", endpoint)
}

func newGateway(cfg *config.GatewayConfig, base, endpoint string) *Gateway {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", base, model)
	}
	return &Gateway{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout()},
	}
}

func (g *Gateway) Complete(ctx context.Context, in port.CompletionRequest) (*port.Completion, error) {
	generationConfig := map[string]interface{}{
		"maxOutputTokens": 16384,
	}
	if in.JSONOutput {
		generationConfig["responseMimeType"] = "application/json"
	}
	if in.Deterministic {
		generationConfig["temperature"] = 0
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": parts(in),
			},
		},
		"generationConfig": generationConfig,
	}
	if in.Instructions != "" {
		reqBody["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]interface{}{
				{"text": in.Instructions},
			},
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
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, parser.NewBackendError(providerName, 0, fmt.Errorf("calling gemini API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, parser.NewBackendError(providerName, resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, parser.Truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parser.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, parser.NewRateLimitError(providerName, baseErr, retryAfter)
		}
		return nil, parser.NewBackendError(providerName, resp.StatusCode, baseErr)
	}

	return g.parseResponse(respBody)
}

func parts(in port.CompletionRequest) []map[string]interface{} {
	if len(in.Image) > 0 {
		return []map[string]interface{}{
			{
				"inlineData": map[string]interface{}{
					"mimeType": in.MimeType,
					"data":     base64.StdEncoding.EncodeToString(in.Image),
				},
			},
		}
	}
	return []map[string]interface{}{
		{"text": in.Text},
	}
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	ModelVersion string `json:"modelVersion"`
	Candidates   []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (g *Gateway) parseResponse(body []byte) (*port.Completion, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, parser.NewBackendError(providerName, http.StatusOK, fmt.Errorf("unmarshaling response: %w", err))
	}

	out := &port.Completion{Model: g.model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if len(resp.Candidates) == 0 {
		return out, nil
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	out.Content = b.String()
	return out, nil
}
