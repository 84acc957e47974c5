package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"newscast/internal/services"
	"newscast/internal/services/retry"
	"newscast/internal/stage"
)

// CommandConfig configures the external-binary backend.
type CommandConfig struct {
	Binary   string
	Args     []string
	MaxChars int
	Timeout  time.Duration
	// OutputFormat is the extension of the audio the binary emits; wav when empty.
	OutputFormat string
}

// Command speaks by piping text through an external program.
type Command struct {
	cfg    CommandConfig
	policy retry.Policy
}

// NewCommand constructs the command backend.
func NewCommand(cfg CommandConfig, policy retry.Policy) *Command {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 4096
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = "wav"
	}
	return &Command{cfg: cfg, policy: policy}
}

func (c *Command) Name() string   { return filepath.Base(c.cfg.Binary) }
func (c *Command) Format() string { return c.cfg.OutputFormat }
func (c *Command) MaxChars() int  { return c.cfg.MaxChars }

// Speak runs the binary once per attempt; only timeouts are retried.
func (c *Command) Speak(ctx context.Context, text, output string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return services.Wrap(services.ErrValidation, "tts", "speak", "empty text", nil)
	}
	var audio []byte
	err := c.policy.Do(ctx, "tts command", retry.HTTP, func(ctx context.Context, _ int) error {
		data, err := c.run(ctx, text)
		if err != nil {
			return err
		}
		audio = data
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, services.ErrTransient) {
			return err
		}
		return services.Wrap(services.ErrExternalTool, "tts", "speak", c.Name(), err)
	}
	return writeAudio(output, audio)
}

func (c *Command) run(ctx context.Context, text string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	cmd := exec.CommandContext(callCtx, c.cfg.Binary, c.cfg.Args...)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "tts", "command", "timed out", err)
		}
		return nil, fmt.Errorf("%s: %w: %s", c.Name(), err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s produced no audio", c.Name())
	}
	return stdout.Bytes(), nil
}

// HealthCheck verifies the binary is on PATH.
func (c *Command) HealthCheck(context.Context) stage.Health {
	name := "tts (" + c.Name() + ")"
	if _, err := exec.LookPath(c.cfg.Binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("binary %q not found", c.cfg.Binary))
	}
	return stage.Healthy(name)
}
