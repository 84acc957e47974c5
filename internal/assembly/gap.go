package assembly

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newscast/internal/config"
	"newscast/internal/logging"
	"newscast/internal/services"
)

const defaultFillerText = "This segment is unavailable. We'll continue with the next story."

type gapClip struct {
	path   string
	millis int64
	fill   string
}

// prepareGap renders the clip placed where failed segments would be. A nil
// result means gaps are skipped.
func (a *Assembler) prepareGap(ctx context.Context, logger *slog.Logger, policy, workDir string) *gapClip {
	switch policy {
	case config.GapPolicySilence:
		clip, err := a.silence(ctx, workDir)
		if err != nil {
			a.warnDegraded(logger, policy, err)
			return nil
		}
		return clip
	case config.GapPolicyFiller:
		clip, err := a.filler(ctx, workDir)
		if err != nil {
			a.warnDegraded(logger, policy, err)
			return nil
		}
		return clip
	default:
		return nil
	}
}

func (a *Assembler) silence(ctx context.Context, workDir string) (*gapClip, error) {
	if workDir == "" {
		return nil, services.Wrap(services.ErrValidation, "assembly", "silence", "work dir is required", nil)
	}
	length := time.Duration(a.cfg.GapSeconds * float64(time.Second)).Round(time.Millisecond)
	if length <= 0 {
		return nil, services.Wrap(services.ErrValidation, "assembly", "silence", "gap length must be positive", nil)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "assembly", "silence", "create work dir", err)
	}
	path := filepath.Join(workDir, silenceClipName)
	if err := a.processor.Silence(ctx, length, path); err != nil {
		return nil, err
	}
	return &gapClip{path: path, millis: length.Milliseconds(), fill: config.GapPolicySilence}, nil
}

// filler synthesizes the spoken notice once; later runs reuse the cached clip.
func (a *Assembler) filler(ctx context.Context, workDir string) (*gapClip, error) {
	if a.speaker == nil {
		return nil, services.Wrap(services.ErrConfiguration, "assembly", "filler", "no speaker configured", nil)
	}
	if workDir == "" {
		return nil, services.Wrap(services.ErrValidation, "assembly", "filler", "work dir is required", nil)
	}
	text := strings.TrimSpace(a.cfg.FillerText)
	if text == "" {
		text = defaultFillerText
	}
	path := filepath.Join(workDir, fillerClipName+"."+a.speaker.Format())
	if _, err := os.Stat(path); err != nil {
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "assembly", "filler", "create work dir", err)
		}
		if err := a.speaker.Speak(ctx, text, path); err != nil {
			return nil, err
		}
	}
	length, err := a.processor.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	return &gapClip{path: path, millis: length.Round(time.Millisecond).Milliseconds(), fill: config.GapPolicyFiller}, nil
}

func (a *Assembler) warnDegraded(logger *slog.Logger, policy string, err error) {
	logging.WarnWithContext(logger, "gap clip unavailable", "gap_policy_degraded",
		logging.String("gap_policy", policy),
		logging.Error(err),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.String(logging.FieldErrorHint, "failed segments are skipped instead"),
		logging.String(logging.FieldImpact, "gaps are silent cuts"),
	)
}
