package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"studynotes/internal/config"
)

// OllamaClient runs prompts against a local Ollama server through langchaingo.
type OllamaClient struct {
	llm llms.Model
}

func init() {
	Register("ollama", func(cfg config.LLMConfig) (Generator, error) {
		return NewOllamaClient(cfg)
	})
}

func NewOllamaClient(cfg config.LLMConfig) (*OllamaClient, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client failed: %w", err)
	}
	return &OllamaClient{llm: llm}, nil
}

func (c *OllamaClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case RoleSystem:
			role = llms.ChatMessageTypeSystem
		case RoleAssistant:
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	resp, err := c.llm.GenerateContent(ctx, content)
	if err != nil {
		return "", upstream("ollama", err)
	}
	if len(resp.Choices) == 0 {
		return "", upstream("ollama", errors.New("empty ollama choices"))
	}
	return resp.Choices[0].Content, nil
}
