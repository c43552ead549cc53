package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynotes/internal/config"
	"studynotes/internal/pkg/apperr"
)

func TestOpenAICompatibleComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model    string        `json:"model"`
			Messages []ChatMessage `json:"messages"`
			Stream   bool          `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mistralai/mistral-7b-instruct", body.Model)
		assert.False(t, body.Stream)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, RoleSystem, body.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"1. Cells\n\nCells are small."}}]}`)
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient(ChatConfig{
		BaseURL: server.URL + "/api/v1/",
		APIKey:  "test-key",
		Model:   "mistralai/mistral-7b-instruct",
	}, server.Client())

	out, err := client.Complete(context.Background(), []ChatMessage{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "summarize"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1. Cells\n\nCells are small.", out)
}

func TestOpenAICompatibleUpstreamFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non 2xx", status: http.StatusTooManyRequests, body: `{"error":"rate limited"}`},
		{name: "malformed body", status: http.StatusOK, body: `<html>`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewOpenAICompatibleClient(ChatConfig{BaseURL: server.URL}, server.Client())
			_, err := client.Complete(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}})
			assert.ErrorIs(t, err, apperr.ErrUpstream)
		})
	}
}

func TestNewSelectsProvider(t *testing.T) {
	gen, err := New(config.LLMConfig{Provider: "OpenAI_Compatible", BaseURL: "http://x", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAICompatibleClient{}, gen)

	gen, err = New(config.LLMConfig{Provider: "openai", APIKey: "k", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, gen)

	_, err = New(config.LLMConfig{Provider: "gemini"})
	assert.Error(t, err)

	_, err = New(config.LLMConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestSpeechSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "xi-key", r.Header.Get("xi-api-key"))
		assert.Equal(t, "audio/mpeg", r.Header.Get("Accept"))

		var body speechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Read this", body.Text)
		assert.Equal(t, "eleven_monolingual_v1", body.ModelID)
		assert.Equal(t, 0.5, body.VoiceSettings.Stability)
		assert.Equal(t, 0.75, body.VoiceSettings.SimilarityBoost)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake-mp3"))
	}))
	defer server.Close()

	client := NewSpeechClient(config.SpeechConfig{
		BaseURL:         server.URL + "/v1",
		APIKey:          "xi-key",
		VoiceID:         "voice-1",
		ModelID:         "eleven_monolingual_v1",
		Stability:       0.5,
		SimilarityBoost: 0.75,
	}, server.Client())

	audio, err := client.Synthesize(context.Background(), "Read this")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3fake-mp3"), audio)
}

func TestSpeechSynthesizeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewSpeechClient(config.SpeechConfig{BaseURL: server.URL}, server.Client())
	_, err := client.Synthesize(context.Background(), "x")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}
