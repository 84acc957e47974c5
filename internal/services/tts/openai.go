package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newscast/internal/services"
	"newscast/internal/services/retry"
	"newscast/internal/stage"
)

const openAIName = "openai"

// OpenAIConfig configures the HTTP speech backend.
type OpenAIConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Voice    string
	MaxChars int
	Timeout  time.Duration
}

// OpenAI speaks through an OpenAI-compatible speech endpoint.
type OpenAI struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	policy     retry.Policy
}

// NewOpenAI constructs the HTTP backend.
func NewOpenAI(cfg OpenAIConfig, policy retry.Policy) *OpenAI {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 4096
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	return &OpenAI{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		policy:     policy,
	}
}

func (o *OpenAI) Name() string   { return openAIName }
func (o *OpenAI) Format() string { return "mp3" }
func (o *OpenAI) MaxChars() int  { return o.cfg.MaxChars }

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Speak posts text and writes the returned audio to output.
func (o *OpenAI) Speak(ctx context.Context, text, output string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return services.Wrap(services.ErrValidation, "tts", "speak", "empty text", nil)
	}
	if len([]rune(text)) > o.cfg.MaxChars {
		return services.Wrap(services.ErrValidation, "tts", "speak",
			fmt.Sprintf("text exceeds %d characters", o.cfg.MaxChars), nil)
	}
	if o.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "tts", "speak", "api key required", nil)
	}
	body, err := json.Marshal(speechRequest{
		Model:          o.cfg.Model,
		Input:          text,
		Voice:          o.cfg.Voice,
		ResponseFormat: o.Format(),
	})
	if err != nil {
		return fmt.Errorf("tts request: encode body: %w", err)
	}

	var audio []byte
	err = o.policy.Do(ctx, "tts speak", retry.HTTP, func(ctx context.Context, _ int) error {
		data, err := o.post(ctx, body)
		if err != nil {
			return err
		}
		audio = data
		return nil
	})
	if err != nil {
		return classifyFailure(err)
	}
	return writeAudio(output, audio)
}

func (o *OpenAI) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tts request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: http error (timeout=%s): %w", o.cfg.Timeout, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "tts", "speak", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, retry.NewStatusError("tts", resp, data)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrTransient, "tts", "speak", "empty audio response", nil)
	}
	return data, nil
}

// HealthCheck reports whether credentials are configured.
func (o *OpenAI) HealthCheck(context.Context) stage.Health {
	name := "tts (" + openAIName + ")"
	if o.cfg.APIKey == "" {
		return stage.Unhealthy(name, "api key not configured (set OPENAI_API_KEY)")
	}
	return stage.Healthy(name)
}

func classifyFailure(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var statusErr *retry.StatusError
	if errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden) {
		return services.Wrap(services.ErrConfiguration, "tts", "speak", "credentials rejected", err)
	}
	if errors.Is(err, services.ErrTransient) || errors.Is(err, services.ErrValidation) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "tts", "speak", "request timed out", err)
	}
	return services.Wrap(services.ErrExternalTool, "tts", "speak", "", err)
}

func writeAudio(output string, audio []byte) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create audio directory: %w", err)
	}
	tmp := output + ".partial"
	if err := os.WriteFile(tmp, audio, 0o644); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	if err := os.Rename(tmp, output); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize audio: %w", err)
	}
	return nil
}
