// Package llm abstracts the text-generation capability behind a minimal
// interface so the committee core never talks to a provider SDK directly.
package llm

import "context"

// Generator is the black-box text-generation capability. Implementations
// return the raw response text for a model/system/prompt triple; the
// caller owns schema validation of the response.
type Generator interface {
	Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface, used by
// tests to mock the capability and assert call counts.
type GeneratorFunc func(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, model, systemPrompt, userPrompt)
}
