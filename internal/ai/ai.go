package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"studynotes/internal/config"
	"studynotes/internal/pkg/apperr"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator sends a chat prompt to a completion provider and returns the first choice's text.
type Generator interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

type Factory func(cfg config.LLMConfig) (Generator, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

// New builds the generator named by cfg.Provider.
func New(cfg config.LLMConfig) (Generator, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if key == "" {
		return nil, fmt.Errorf("llm.provider is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

func upstream(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperr.ErrUpstream, provider, err)
}
