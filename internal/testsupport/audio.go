package testsupport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"newscast/internal/services"
	"newscast/internal/stage"
)

// Fake clips are text files holding one "<millis>ms" line per joined piece,
// so probes and concatenation round-trip exact durations without ffmpeg.

// WriteClip writes a fake clip of the given length.
func WriteClip(path string, length time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%dms\n", length.Milliseconds())), 0o644)
}

// ClipLength parses a fake clip and returns its total length.
func ClipLength(path string) (time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var total time.Duration
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		d, err := time.ParseDuration(line)
		if err != nil {
			return 0, fmt.Errorf("fake clip %s: %w", path, err)
		}
		total += d
	}
	return total, scanner.Err()
}

// FakeAudio implements audio.Processor over fake clips.
type FakeAudio struct {
	mu       sync.Mutex
	Concats  [][]string
	Silences []time.Duration
	// ConcatErr, when set, is returned by every Concat call.
	ConcatErr error
}

func (f *FakeAudio) Concat(ctx context.Context, inputs []string, output string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.Concats = append(f.Concats, append([]string(nil), inputs...))
	concatErr := f.ConcatErr
	f.mu.Unlock()
	if concatErr != nil {
		return concatErr
	}
	if len(inputs) == 0 {
		return services.Wrap(services.ErrValidation, "audio", "concat", "no inputs", nil)
	}
	var buf bytes.Buffer
	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "audio", "concat", "read input", err)
		}
		buf.Write(data)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return err
	}
	return os.WriteFile(output, buf.Bytes(), 0o644)
}

func (f *FakeAudio) Silence(ctx context.Context, length time.Duration, output string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.Silences = append(f.Silences, length)
	f.mu.Unlock()
	return WriteClip(output, length)
}

func (f *FakeAudio) Probe(ctx context.Context, path string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d, err := ClipLength(path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "audio", "probe", "read clip", err)
	}
	return d, nil
}

// ConcatCalls returns a copy of the recorded concat inputs.
func (f *FakeAudio) ConcatCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.Concats...)
}

// FakeSpeaker implements tts.Speaker by writing fake clips whose length is
// proportional to the text.
type FakeSpeaker struct {
	// PerRune is the clip length produced per rune of text; defaults to 10ms.
	PerRune time.Duration
	Limit   int
	// Fail returns an error to inject for a given text, or nil.
	Fail func(text string) error
	// Block, when set, makes Speak wait until ctx is done or the channel closes.
	Block chan struct{}

	mu    sync.Mutex
	texts []string
}

func (f *FakeSpeaker) Name() string   { return "fake" }
func (f *FakeSpeaker) Format() string { return "mp3" }
func (f *FakeSpeaker) MaxChars() int  { return f.Limit }

func (f *FakeSpeaker) Speak(ctx context.Context, text, output string) error {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.Block != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.Block:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Fail != nil {
		if err := f.Fail(text); err != nil {
			return err
		}
	}
	per := f.PerRune
	if per <= 0 {
		per = 10 * time.Millisecond
	}
	return WriteClip(output, time.Duration(len([]rune(text)))*per)
}

func (f *FakeSpeaker) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("fake")
}

// Texts returns every text passed to Speak, in call order.
func (f *FakeSpeaker) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// ErrInjected is a convenient failure for FakeSpeaker.Fail.
var ErrInjected = errors.New("injected failure")
