// Package llm wraps the chat models used to summarize 10-K Items.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingAPIKey is returned when a provider is built or called without a key.
var ErrMissingAPIKey = errors.New("llm: API key not set")

// Provider is the interface for all LLM providers.
//
// options may carry "model", "max_tokens", "temperature" and
// "response_format" ({"type": "json_object"}); providers ignore keys they do
// not understand.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// Name identifies the provider in logs.
	Name() string
}

// New returns the provider registered under name ("deepseek", "gemini" or
// "qwen"). An empty model selects the provider default.
func New(name, apiKey, model string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w for provider %q", ErrMissingAPIKey, name)
	}

	switch strings.ToLower(name) {
	case "deepseek", "":
		return &DeepSeekProvider{APIKey: apiKey, Model: model}, nil
	case "gemini":
		return &GeminiProvider{APIKey: apiKey, Model: model}, nil
	case "qwen":
		return &QwenProvider{APIKey: apiKey, Model: model}, nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", name)
}

func stringOption(options map[string]interface{}, key string) string {
	if v, ok := options[key].(string); ok {
		return v
	}
	return ""
}

// wantsJSON reports whether the caller asked for a JSON object answer.
func wantsJSON(options map[string]interface{}) bool {
	switch v := options["response_format"].(type) {
	case map[string]interface{}:
		return v["type"] == "json_object"
	case map[string]string:
		return v["type"] == "json_object"
	case string:
		return v == "json_object"
	}
	return false
}
