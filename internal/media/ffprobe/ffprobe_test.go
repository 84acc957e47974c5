package ffprobe

import (
	"context"
	"math"
	"testing"
	"time"
)

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_name": "mp3", "codec_type": "audio", "sample_rate": "22050", "channels": 1, "duration": "61.440000"}
  ],
  "format": {"filename": "segment_1.mp3", "nb_streams": 1, "duration": "61.440000", "size": "983040", "bit_rate": "128000", "format_name": "mp3"}
}`

func TestParseAudioResult(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.DurationSeconds() != 61.44 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.Duration() != 61440*time.Millisecond {
		t.Fatalf("unexpected time.Duration: %v", result.Duration())
	}
	if result.SampleRate() != 22050 {
		t.Fatalf("unexpected sample rate: %d", result.SampleRate())
	}
	if result.SizeBytes() != 983040 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 128000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestDurationFallsBackToStream(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio", Duration: "2.5"}}}
	if result.DurationSeconds() != 2.5 {
		t.Fatalf("expected stream duration fallback, got %v", result.DurationSeconds())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.Duration() != 0 {
		t.Fatalf("expected zero duration for malformed value, got %v", result.Duration())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
	if result.SampleRate() != 0 {
		t.Fatalf("expected sample rate 0 without streams")
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
