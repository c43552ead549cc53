package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studynotes/internal/config"
)

// SpeechClient synthesizes MP3 audio through the ElevenLabs text-to-speech API.
type SpeechClient struct {
	httpClient *http.Client
	cfg        config.SpeechConfig
}

func NewSpeechClient(cfg config.SpeechConfig, httpClient *http.Client) *SpeechClient {
	if httpClient == nil {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &SpeechClient{httpClient: httpClient, cfg: cfg}
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

func (c *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(speechRequest{
		Text:    text,
		ModelID: c.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/text-to-speech/" + c.cfg.VoiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build speech request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstream("elevenlabs", fmt.Errorf("speech request failed: %w", err))
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, upstream("elevenlabs", fmt.Errorf("read speech response failed: %w", err))
	}
	if resp.StatusCode >= 300 {
		return nil, upstream("elevenlabs", fmt.Errorf("speech response status %d: %s", resp.StatusCode, truncate(audio, 512)))
	}
	if len(audio) == 0 {
		return nil, upstream("elevenlabs", fmt.Errorf("empty audio response"))
	}
	return audio, nil
}
