package ai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"studynotes/internal/config"
)

// OpenAIClient talks to OpenAI, or any API it is pointed at, through the go-openai SDK.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func init() {
	Register("openai", func(cfg config.LLMConfig) (Generator, error) {
		return NewOpenAIClient(cfg), nil
	})
}

func NewOpenAIClient(cfg config.LLMConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", upstream("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", upstream("openai", errors.New("empty llm choices"))
	}
	return resp.Choices[0].Message.Content, nil
}
