package llm

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements the Provider interface for Google's Gemini models.
// The SDK client is created on first use and reused.
type GeminiProvider struct {
	APIKey string
	Model  string

	once      sync.Once
	client    *genai.Client
	clientErr error
}

// Ensure interface compliance
var _ Provider = (*GeminiProvider)(nil)

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) genaiClient(ctx context.Context) (*genai.Client, error) {
	p.once.Do(func() {
		p.client, p.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return p.client, p.clientErr
}

// GenerateResponse sends a generateContent request using the GenAI SDK.
func (p *GeminiProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	if p.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	model := p.Model
	if v := stringOption(options, "model"); v != "" {
		model = v
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := p.genaiClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create GenAI client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}
	if v, ok := options["temperature"].(float64); ok {
		config.Temperature = genai.Ptr(float32(v))
	}
	if v, ok := options["max_tokens"].(int); ok && v > 0 {
		config.MaxOutputTokens = int32(v)
	}
	if wantsJSON(options) {
		config.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: systemPrompt},
			},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	return result.Text(), nil
}
