package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/prediktfi/idea-committee/internal/errors"
	"github.com/prediktfi/idea-committee/internal/resilience"
)

// GeminiGenerator implements Generator on top of the Gemini API. All role
// responses are requested as JSON; the breaker protects the whole process
// from a degraded provider.
type GeminiGenerator struct {
	client  *genai.Client
	breaker *resilience.CircuitBreaker
	timeout time.Duration
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey string, timeout time.Duration) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
		}),
		timeout: timeout,
	}, nil
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var text string
	err := g.breaker.Call(func() error {
		contents := []*genai.Content{
			genai.NewContentFromText(userPrompt, genai.RoleUser),
		}

		config := &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		}
		if systemPrompt != "" {
			config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
		}

		resp, err := g.client.Models.GenerateContent(callCtx, model, contents, config)
		if err != nil {
			return errors.NewProviderError("gemini", err)
		}

		text = resp.Text()
		if text == "" {
			return errors.NewProviderError("gemini", fmt.Errorf("empty response from model %s", model))
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return text, nil
}
