package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultQwenBaseURL = "https://dashscope.aliyuncs.com"
	DefaultQwenModel   = "qwen-max"
	qwenGenerationPath = "/api/v1/services/aigc/text-generation/generation"
)

// QwenProvider calls the native DashScope text-generation API.
type QwenProvider struct {
	APIKey     string
	Model      string
	BaseURL    string       // default https://dashscope.aliyuncs.com
	HTTPClient *http.Client // default 120s timeout
}

var _ Provider = (*QwenProvider)(nil)

type qwenRequest struct {
	Model      string         `json:"model"`
	Input      qwenInput      `json:"input"`
	Parameters qwenParameters `json:"parameters"`
}

type qwenInput struct {
	Messages []Message `json:"messages"`
}

type qwenParameters struct {
	ResultFormat   string          `json:"result_format"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type qwenResponse struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		// Some endpoints answer with output.text instead of choices.
		Text string `json:"text"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (p *QwenProvider) Name() string { return "qwen" }

func (p *QwenProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	if p.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	model := p.Model
	if v := stringOption(options, "model"); v != "" {
		model = v
	}
	if model == "" {
		model = DefaultQwenModel
	}

	reqBody := qwenRequest{
		Model: model,
		Input: qwenInput{Messages: []Message{
			{Content: systemPrompt, Role: "system"},
			{Content: prompt, Role: "user"},
		}},
		Parameters: qwenParameters{ResultFormat: "message"},
	}
	if v, ok := options["max_tokens"].(int); ok && v > 0 {
		reqBody.Parameters.MaxTokens = v
	}
	if v, ok := options["temperature"].(float64); ok {
		reqBody.Parameters.Temperature = &v
	}
	if wantsJSON(options) {
		reqBody.Parameters.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal qwen request: %w", err)
	}

	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = DefaultQwenBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+qwenGenerationPath, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create qwen request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("qwen api call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read qwen response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("qwen api returned status %d: %s", resp.StatusCode, truncateBody(body))
	}

	var result qwenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode qwen response: %w", err)
	}
	if result.Code != "" {
		return "", fmt.Errorf("qwen api error: %s - %s", result.Code, result.Message)
	}

	if len(result.Output.Choices) > 0 {
		return result.Output.Choices[0].Message.Content, nil
	}
	if result.Output.Text != "" {
		return result.Output.Text, nil
	}
	return "", fmt.Errorf("empty response from qwen api")
}
