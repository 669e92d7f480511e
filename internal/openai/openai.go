package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/asset-cataloger/internal/providers"
)

const (
	// DefaultBaseURL is the OpenAI API root
	DefaultBaseURL = "https://api.openai.com/v1"
	// OpenRouterBaseURL is the OpenRouter API root, which speaks the same chat completions protocol
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenAI is a provider for OpenAI-compatible chat completion endpoints
type OpenAI struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New returns a new OpenAI-compatible provider. An empty baseURL means DefaultBaseURL.
func New(apiKey, baseURL string, timeout time.Duration) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractText sends the prompt and images as one user message and returns the reply text
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	requestBody, err := json.Marshal(buildRequest(config))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := o.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, providers.BodyExcerpt(body))
	}

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from %s", o.baseURL)
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// buildRequest puts image parts first and the text part last.
func buildRequest(config providers.Config) chatRequest {
	parts := make([]contentPart, 0, len(config.Images)+1)
	for _, img := range config.Images {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: img.DataURL()},
		})
	}
	parts = append(parts, contentPart{Type: "text", Text: config.Prompt})

	req := chatRequest{
		Model:     config.Model,
		Messages:  []message{{Role: "user", Content: parts}},
		MaxTokens: config.MaxTokens,
	}
	if config.Temperature > 0 {
		temperature := config.Temperature
		req.Temperature = &temperature
	}
	return req
}
