// Package llm wraps the chat-model calls the pipeline makes: match
// adjudication and coverage summarization. Both are best-effort; with no
// API key configured, or on any request failure, each falls back to a
// deterministic offline rule and never surfaces an error to callers.
package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// newChatModel creates a chat client against the OpenRouter API.
func newChatModel(apiKey, modelID string) (llms.Model, error) {
	client, err := openai.New(
		openai.WithBaseURL(openRouterBaseURL),
		openai.WithToken(apiKey),
		openai.WithModel(modelID),
	)
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}
	return client, nil
}
