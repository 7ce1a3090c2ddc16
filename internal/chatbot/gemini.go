package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DefaultGeminiBaseURL is the Generative Language API v1beta endpoint.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultGeminiModel is used when no model is configured.
	DefaultGeminiModel = "gemini-2.5-flash"
)

// ErrEmptyCompletion is returned when the model produces no text.
var ErrEmptyCompletion = errors.New("model returned no text")

// GenerationConfig holds sampling parameters sent with every request.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// DefaultGenerationConfig favors short, moderately varied answers.
var DefaultGenerationConfig = GenerationConfig{
	Temperature:     0.7,
	TopP:            0.9,
	TopK:            40,
	MaxOutputTokens: 300,
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// GeminiClient calls the generateContent REST method.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	config     GenerationConfig
	httpClient *http.Client
}

// NewGeminiClient creates a client. Empty model and baseURL use the defaults.
func NewGeminiClient(apiKey, model, baseURL string, timeout time.Duration) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		config:     DefaultGenerationConfig,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an API key is set.
func (c *GeminiClient) Configured() bool {
	return c.apiKey != ""
}

// Model returns the model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate sends prompt as a single user turn and returns the trimmed text of
// the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: c.config,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call model: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read model response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned status %d: %s", resp.StatusCode, gjson.GetBytes(data, "error.message").String())
	}

	var text strings.Builder
	for _, part := range gjson.GetBytes(data, "candidates.0.content.parts").Array() {
		text.WriteString(part.Get("text").String())
	}
	answer := strings.TrimSpace(text.String())
	if answer == "" {
		return "", ErrEmptyCompletion
	}
	return answer, nil
}
