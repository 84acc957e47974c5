package narration_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newscast/internal/logging"
	"newscast/internal/narration"
	"newscast/internal/services"
	"newscast/internal/testsupport"
)

func request(t *testing.T, index int, text string) narration.Request {
	t.Helper()
	dir := t.TempDir()
	return narration.Request{
		Index:      index,
		Text:       text,
		OutputPath: filepath.Join(dir, "segment_1", "segment_1.mp3"),
		WorkDir:    filepath.Join(dir, ".work"),
	}
}

func TestSynthesizeSingleChunk(t *testing.T) {
	speaker := &testsupport.FakeSpeaker{Limit: 4096}
	audio := &testsupport.FakeAudio{}
	s := narration.New(speaker, audio, logging.NewNop())

	req := request(t, 1, "Good evening. Here is the news.")
	res, err := s.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.Chunks != 1 {
		t.Fatalf("expected 1 chunk, got %d", res.Chunks)
	}
	want := time.Duration(len("Good evening. Here is the news.")) * 10 * time.Millisecond
	if res.Duration != want {
		t.Fatalf("expected duration %v, got %v", want, res.Duration)
	}
	if got, err := testsupport.ClipLength(res.AudioPath); err != nil || got != want {
		t.Fatalf("segment clip length = %v (%v), want %v", got, err, want)
	}
}

func TestSynthesizeSplitsLongScripts(t *testing.T) {
	speaker := &testsupport.FakeSpeaker{Limit: 40}
	audio := &testsupport.FakeAudio{}
	s := narration.New(speaker, audio, logging.NewNop())

	text := "The first sentence is here. The second one follows it. And a third closes the segment."
	res, err := s.Synthesize(context.Background(), request(t, 2, text))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	texts := speaker.Texts()
	if len(texts) != res.Chunks || res.Chunks < 3 {
		t.Fatalf("expected at least 3 chunks, got %d (%q)", res.Chunks, texts)
	}
	for _, chunk := range texts {
		if len(chunk) > 40 {
			t.Fatalf("chunk exceeds backend limit: %q", chunk)
		}
	}
	if strings.Join(texts, " ") != text {
		t.Fatalf("chunks out of order: %q", texts)
	}
	var sum time.Duration
	for _, chunk := range texts {
		sum += time.Duration(len(chunk)) * 10 * time.Millisecond
	}
	if res.Duration != sum {
		t.Fatalf("expected summed duration %v, got %v", sum, res.Duration)
	}
	calls := audio.ConcatCalls()
	if len(calls) != 1 || len(calls[0]) != res.Chunks {
		t.Fatalf("expected one concat of %d chunks, got %v", res.Chunks, calls)
	}
	for _, chunk := range calls[0] {
		if _, err := os.Stat(chunk); !os.IsNotExist(err) {
			t.Fatalf("chunk %s should be cleaned up", chunk)
		}
	}
}

func TestSynthesizeRemovesStaleArtifacts(t *testing.T) {
	speaker := &testsupport.FakeSpeaker{Limit: 4096}
	s := narration.New(speaker, &testsupport.FakeAudio{}, logging.NewNop())
	req := request(t, 3, "Fresh narration.")

	stale := filepath.Join(req.WorkDir, "segment_3_chunk_07.mp3")
	other := filepath.Join(req.WorkDir, "segment_4_chunk_01.mp3")
	for _, p := range []string{stale, other, req.OutputPath} {
		if err := testsupport.WriteClip(p, time.Hour); err != nil {
			t.Fatalf("WriteClip: %v", err)
		}
	}

	res, err := s.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale chunk should be removed")
	}
	if _, err := os.Stat(other); err != nil {
		t.Fatal("other segment's chunk should be untouched")
	}
	if got, _ := testsupport.ClipLength(res.AudioPath); got >= time.Hour {
		t.Fatalf("output was not overwritten, length %v", got)
	}
}

func TestSynthesizeWrapsBackendErrors(t *testing.T) {
	backendErr := services.Wrap(services.ErrTransient, "tts", "speak", "retries exhausted", testsupport.ErrInjected)
	speaker := &testsupport.FakeSpeaker{Limit: 4096, Fail: func(string) error { return backendErr }}
	s := narration.New(speaker, &testsupport.FakeAudio{}, logging.NewNop())

	_, err := s.Synthesize(context.Background(), request(t, 1, "Some text."))
	if !errors.Is(err, narration.ErrNarration) {
		t.Fatalf("expected ErrNarration, got %v", err)
	}
	if !errors.Is(err, testsupport.ErrInjected) || services.Kind(err) != "transient" {
		t.Fatalf("expected cause to be preserved, got %v (kind %s)", err, services.Kind(err))
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	s := narration.New(&testsupport.FakeSpeaker{}, &testsupport.FakeAudio{}, logging.NewNop())
	_, err := s.Synthesize(context.Background(), request(t, 1, "   "))
	if !errors.Is(err, narration.ErrNarration) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation narration error, got %v", err)
	}
}

func TestSynthesizeConcatFailure(t *testing.T) {
	audio := &testsupport.FakeAudio{ConcatErr: services.Wrap(services.ErrExternalTool, "audio", "concat", "ffmpeg exited 1", nil)}
	s := narration.New(&testsupport.FakeSpeaker{Limit: 100}, audio, logging.NewNop())
	_, err := s.Synthesize(context.Background(), request(t, 1, "Some text."))
	if !errors.Is(err, narration.ErrNarration) || !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool narration error, got %v", err)
	}
}
