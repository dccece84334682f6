package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ElevenLabsConfig holds configuration for the ElevenLabs client.
type ElevenLabsConfig struct {
	APIKey  string
	Model   string        // model id, e.g. eleven_turbo_v2 or scribe_v1
	Voice   string        // voice id for synthesis; default: 21m00Tcm4TlvDq8ikWAM
	BaseURL string        // default: https://api.elevenlabs.io
	Timeout time.Duration // default: 120s
}

// ElevenLabsClient implements SpeechSynthesizer and Transcriber using the
// ElevenLabs API. ElevenLabs serves audio model types only.
type ElevenLabsClient struct {
	cfg            ElevenLabsConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

// NewElevenLabsClient creates a new ElevenLabs client with the given configuration.
func NewElevenLabsClient(cfg ElevenLabsConfig) *ElevenLabsClient {
	if cfg.Voice == "" {
		cfg.Voice = "21m00Tcm4TlvDq8ikWAM"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &ElevenLabsClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: NewCircuitBreaker(),
	}
}

// elevenLabsSpeechRequest is the request body for POST /v1/text-to-speech/{voice}.
type elevenLabsSpeechRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// elevenLabsTranscriptionResponse is the response body from POST /v1/speech-to-text.
type elevenLabsTranscriptionResponse struct {
	Text string `json:"text"`
}

// Synthesize renders the given text to mp3 audio using the configured voice.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.synthesize(ctx, text)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, fmt.Errorf("elevenlabs circuit breaker open: %w", err)
		}
		return nil, err
	}
	return result.([]byte), nil
}

func (c *ElevenLabsClient) synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqBody := elevenLabsSpeechRequest{
		Text:    text,
		ModelID: c.cfg.Model,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/text-to-speech/"+c.cfg.Voice, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("elevenlabs returned status %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("elevenlabs returned empty audio")
	}
	return audio, nil
}

// Transcribe uploads the given audio to the speech-to-text endpoint and
// returns the recognized text.
func (c *ElevenLabsClient) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.transcribe(ctx, audio, filename)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return "", fmt.Errorf("elevenlabs circuit breaker open: %w", err)
		}
		return "", err
	}
	return result.(string), nil
}

func (c *ElevenLabsClient) transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("model_id", c.cfg.Model); err != nil {
		return "", fmt.Errorf("failed to build multipart request: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart request: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to build multipart request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build multipart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/speech-to-text", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("elevenlabs returned status %d: %s", resp.StatusCode, string(body))
	}

	var respData elevenLabsTranscriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return respData.Text, nil
}

// GetModel returns the configured model id.
func (c *ElevenLabsClient) GetModel() string {
	return c.cfg.Model
}

var _ SpeechSynthesizer = (*ElevenLabsClient)(nil)
var _ Transcriber = (*ElevenLabsClient)(nil)
