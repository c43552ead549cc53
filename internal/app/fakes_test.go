package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"studynotes/internal/ai"
	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
	"studynotes/internal/repository"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   [][]ai.ChatMessage
	respond func(messages []ai.ChatMessage) (string, error)
}

func (f *fakeGenerator) Complete(_ context.Context, messages []ai.ChatMessage) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.mu.Unlock()
	if f.respond == nil {
		return "", errors.New("no response configured")
	}
	return f.respond(messages)
}

func (f *fakeGenerator) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeGenerator) Call(i int) []ai.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func replyWith(out string) func([]ai.ChatMessage) (string, error) {
	return func([]ai.ChatMessage) (string, error) { return out, nil }
}

// lastContent is the content of the final message in a prompt.
func lastContent(messages []ai.ChatMessage) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].Content
}

func isTitlePrompt(messages []ai.ChatMessage) bool {
	return strings.HasPrefix(lastContent(messages), "Suggest a short title")
}

type fakeSpeech struct {
	audio []byte
	err   error
	texts []string
}

func (f *fakeSpeech) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.texts = append(f.texts, text)
	return f.audio, f.err
}

type fakeExtractor struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}

type memFiles struct {
	mu        sync.Mutex
	files     map[string][]byte
	saveErr   error
	deleteErr error
}

func newMemFiles() *memFiles {
	return &memFiles{files: make(map[string][]byte)}
}

func (m *memFiles) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = data
	return nil
}

func (m *memFiles) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[key]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memFiles) Delete(_ context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	return nil
}

func (m *memFiles) URL(key string) string {
	return "http://localhost:5000/uploads/" + key
}

func (m *memFiles) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type failingMaterials struct {
	*repository.MemoryMaterialRepository
}

func (f failingMaterials) Create(context.Context, *model.StudyMaterial) error {
	return errors.New("insert material failed: connection reset")
}

type fakePublisher struct {
	mu       sync.Mutex
	err      error
	messages []model.QAMessage
}

func (f *fakePublisher) Publish(_ context.Context, msg model.QAMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

type memHistory struct {
	mu    sync.Mutex
	pairs map[string][]model.QAPair
	err   error
}

func newMemHistory() *memHistory {
	return &memHistory{pairs: make(map[string][]model.QAPair)}
}

func (h *memHistory) Get(_ context.Context, noteID string) ([]model.QAPair, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, false, h.err
	}
	pairs, ok := h.pairs[noteID]
	return append([]model.QAPair(nil), pairs...), ok, nil
}

func (h *memHistory) Append(_ context.Context, noteID string, pair model.QAPair) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pairs[noteID] = append(h.pairs[noteID], pair)
	return nil
}

func (h *memHistory) Seed(_ context.Context, noteID string, pairs []model.QAPair) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pairs[noteID] = append([]model.QAPair(nil), pairs...)
	return nil
}

func (h *memHistory) Delete(_ context.Context, noteID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pairs, noteID)
	return nil
}

func newTestGateway(gen ai.Generator, speech SpeechSynthesizer) *Gateway {
	return NewGateway(gen, speech, GatewayOptions{
		Timeout:     time.Second,
		MaxAttempts: 1,
		RetryDelay:  time.Millisecond,
	}, zap.NewNop())
}
