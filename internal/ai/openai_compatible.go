package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studynotes/internal/config"
)

type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// OpenAICompatibleClient posts to any /chat/completions endpoint (OpenRouter by default).
type OpenAICompatibleClient struct {
	httpClient *http.Client
	cfg        ChatConfig
}

func init() {
	Register("openai_compatible", func(cfg config.LLMConfig) (Generator, error) {
		return NewOpenAICompatibleClient(ChatConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		}, nil), nil
	})
}

func NewOpenAICompatibleClient(cfg ChatConfig, httpClient *http.Client) *OpenAICompatibleClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &OpenAICompatibleClient{
		httpClient: httpClient,
		cfg:        cfg,
	}
}

func (c *OpenAICompatibleClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	reqBody := map[string]interface{}{
		"model":    c.cfg.Model,
		"messages": messages,
		"stream":   false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal llm request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build llm request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", upstream("openai_compatible", fmt.Errorf("llm request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", upstream("openai_compatible", fmt.Errorf("read llm response failed: %w", err))
	}
	if resp.StatusCode >= 300 {
		return "", upstream("openai_compatible", fmt.Errorf("llm response status %d: %s", resp.StatusCode, truncate(raw, 512)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", upstream("openai_compatible", fmt.Errorf("parse llm json failed: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", upstream("openai_compatible", errors.New("empty llm choices"))
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
