package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// groqBaseURL is Groq's OpenAI-compatible endpoint.
const groqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIClient drives any OpenAI-compatible chat completion endpoint.
// Groq reuses the same client with a custom base URL.
type OpenAIClient struct {
	client *openai.Client
	name   string
	apiKey string
	model  string
	rl     *rpsLimiter
}

func NewOpenAIClient(apiKey, model string, rps float64, burst int) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		name:   "openai:" + model,
		apiKey: apiKey,
		model:  model,
		rl:     newRPSLimiter(rps, burst),
	}
}

func NewGroqClient(apiKey, model string, rps float64, burst int) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		name:   "groq:" + model,
		apiKey: apiKey,
		model:  model,
		rl:     newRPSLimiter(rps, burst),
	}
}

func (o *OpenAIClient) Name() string { return o.name }

func (o *OpenAIClient) Available(ctx context.Context) bool { return o.apiKey != "" }

func (o *OpenAIClient) Close() error {
	o.rl.Stop()
	return nil
}

func (o *OpenAIClient) Generate(ctx context.Context, instruction, data string) (string, error) {
	if err := o.rl.Acquire(ctx); err != nil {
		return "", err
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: data},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: chat completion: %w", o.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
