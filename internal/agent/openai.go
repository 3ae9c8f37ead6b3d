package agent

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultChatModel = "gpt-4o-mini"

// OpenAICompleter implements ChatCompleter on top of the OpenAI chat
// completions API with the JSON-object response format enforced.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAICompleter builds a completer for the given model. Temperature is
// kept low so the structured triage output stays deterministic.
func NewOpenAICompleter(apiKey, model string, temperature float32) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, errors.New("agent: missing OpenAI API key")
	}
	if model == "" {
		model = defaultChatModel
	}
	return &OpenAICompleter{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
	}, nil
}

// CompleteJSON sends the conversation and returns the raw content of the
// first choice.
func (c *OpenAICompleter) CompleteJSON(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("agent: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("agent: chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
