package ai

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"studynotes/internal/config"
)

type geminiProvider struct {
	apiKey string
	model  string
}

func init() {
	Register("gemini", func(cfg config.LLMConfig) (Generator, error) {
		apiKey := strings.TrimSpace(cfg.APIKey)
		if apiKey == "" {
			return nil, errors.New("gemini api key is required")
		}
		return &geminiProvider{apiKey: apiKey, model: cfg.Model}, nil
	})
}

func (p *geminiProvider) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", upstream("gemini", err)
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}

	var genCfg *genai.GenerateContentConfig
	if len(system) > 0 {
		genCfg = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}},
		}
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, contents, genCfg)
	if err != nil {
		return "", upstream("gemini", err)
	}
	text := resp.Text()
	if text == "" {
		return "", upstream("gemini", errors.New("empty gemini response"))
	}
	return text, nil
}
