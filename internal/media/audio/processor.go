package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"newscast/internal/config"
	"newscast/internal/media/ffprobe"
	"newscast/internal/services"
)

// Settings holds the encoding parameters applied to every clip of an episode.
type Settings struct {
	Bitrate    string `json:"bitrate"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Quality    int    `json:"quality"`
}

// SettingsFromConfig copies the resolved audio section.
func SettingsFromConfig(cfg config.Audio) Settings {
	return Settings{
		Bitrate:    cfg.Bitrate,
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		Quality:    cfg.Quality,
	}
}

// Processor is the audio toolchain used by narration and assembly.
type Processor interface {
	// Concat joins inputs in order into output using the episode settings.
	Concat(ctx context.Context, inputs []string, output string) error
	// Silence renders a silent clip of the given length.
	Silence(ctx context.Context, length time.Duration, output string) error
	// Probe reports the playback duration of path.
	Probe(ctx context.Context, path string) (time.Duration, error)
}

// FFmpeg implements Processor by shelling out to ffmpeg and ffprobe.
type FFmpeg struct {
	binary      string
	probeBinary string
	settings    Settings
	timeout     time.Duration
}

// NewFFmpeg constructs a processor from configuration.
func NewFFmpeg(cfg *config.Config) *FFmpeg {
	timeout := time.Duration(cfg.Audio.CommandTimeoutSeconds) * time.Second
	return &FFmpeg{
		binary:      cfg.Audio.FFmpegBinary,
		probeBinary: cfg.Audio.FFprobeBinary,
		settings:    SettingsFromConfig(cfg.Audio),
		timeout:     timeout,
	}
}

// Settings returns the encoding parameters applied by the processor.
func (f *FFmpeg) Settings() Settings {
	return f.settings
}

// Concat joins inputs in order into output.
func (f *FFmpeg) Concat(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return services.Wrap(services.ErrValidation, "audio", "concat", "no inputs", nil)
	}
	for _, in := range inputs {
		if _, err := os.Stat(in); err != nil {
			return services.Wrap(services.ErrValidation, "audio", "concat", "missing input "+filepath.Base(in), err)
		}
	}
	return f.render(ctx, output, func(tmp string) []string {
		return concatArgs(inputs, f.settings, tmp)
	})
}

// Silence renders a silent clip.
func (f *FFmpeg) Silence(ctx context.Context, length time.Duration, output string) error {
	if length <= 0 {
		return services.Wrap(services.ErrValidation, "audio", "silence", "non-positive length", nil)
	}
	return f.render(ctx, output, func(tmp string) []string {
		return silenceArgs(length, f.settings, tmp)
	})
}

// Probe reports the playback duration of path.
func (f *FFmpeg) Probe(ctx context.Context, path string) (time.Duration, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()
	result, err := ffprobe.Inspect(ctx, f.probeBinary, path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "audio", "probe", filepath.Base(path), err)
	}
	duration := result.Duration()
	if duration <= 0 {
		return 0, services.Wrap(services.ErrExternalTool, "audio", "probe", "no duration reported for "+filepath.Base(path), nil)
	}
	return duration, nil
}

func (f *FFmpeg) render(ctx context.Context, output string, args func(tmp string) []string) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp := strings.TrimSuffix(output, filepath.Ext(output)) + ".partial" + filepath.Ext(output)
	_ = os.Remove(tmp)

	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binary, args(tmp)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(tmp)
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return services.Wrap(services.ErrTimeout, "audio", "ffmpeg", filepath.Base(output), ctxErr)
			}
			return ctxErr
		}
		return services.Wrap(services.ErrExternalTool, "audio", "ffmpeg", tail(stderr.String()), err)
	}
	if err := os.Rename(tmp, output); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", filepath.Base(output), err)
	}
	return nil
}

func (f *FFmpeg) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.timeout)
}

func concatArgs(inputs []string, s Settings, output string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	var filter strings.Builder
	for i, in := range inputs {
		args = append(args, "-i", in)
		fmt.Fprintf(&filter, "[%d:a]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=0:a=1[out]", len(inputs))
	args = append(args, "-filter_complex", filter.String(), "-map", "[out]")
	args = append(args, encodeArgs(s)...)
	return append(args, output)
}

func silenceArgs(length time.Duration, s Settings, output string) []string {
	layout := "mono"
	if s.Channels == 2 {
		layout = "stereo"
	}
	source := fmt.Sprintf("anullsrc=r=%d:cl=%s", s.SampleRate, layout)
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", source,
		"-t", strconv.FormatFloat(length.Seconds(), 'f', 3, 64),
	}
	args = append(args, encodeArgs(s)...)
	return append(args, output)
}

func encodeArgs(s Settings) []string {
	return []string{
		"-ar", strconv.Itoa(s.SampleRate),
		"-ac", strconv.Itoa(s.Channels),
		"-c:a", "libmp3lame",
		"-b:a", s.Bitrate,
		"-compression_level", strconv.Itoa(s.Quality),
		"-f", "mp3",
	}
}

func tail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	lines := strings.Split(stderr, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	if joined := strings.Join(lines, " | "); joined != "" {
		return joined
	}
	return "ffmpeg failed"
}
