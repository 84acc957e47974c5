package assembly_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"newscast/internal/assembly"
	"newscast/internal/config"
	"newscast/internal/logging"
	"newscast/internal/testsupport"
)

type fixture struct {
	cfg   *config.Config
	dir   string
	audio *testsupport.FakeAudio
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return &fixture{cfg: cfg, dir: t.TempDir(), audio: &testsupport.FakeAudio{}}
}

// clips writes n fake segment clips; index i lasts i seconds. Indices listed
// in failed are marked not done.
func (f *fixture) clips(t *testing.T, n int, failed ...int) []assembly.Clip {
	t.Helper()
	isFailed := map[int]bool{}
	for _, idx := range failed {
		isFailed[idx] = true
	}
	out := make([]assembly.Clip, 0, n)
	for i := 1; i <= n; i++ {
		clip := assembly.Clip{Index: i, Title: fmt.Sprintf("Segment title %d", i), ArticleIDs: []string{fmt.Sprintf("a%d", i)}}
		if !isFailed[i] {
			clip.Done = true
			clip.Duration = time.Duration(i) * time.Second
			clip.AudioPath = filepath.Join(f.dir, fmt.Sprintf("segment_%d.mp3", i))
			if err := testsupport.WriteClip(clip.AudioPath, clip.Duration); err != nil {
				t.Fatalf("WriteClip: %v", err)
			}
		}
		out = append(out, clip)
	}
	return out
}

func (f *fixture) input(clips []assembly.Clip) assembly.Input {
	return assembly.Input{
		Segments:   clips,
		OutputPath: filepath.Join(f.dir, "episode_1_complete.mp3"),
		WorkDir:    filepath.Join(f.dir, ".work"),
	}
}

func (f *fixture) withBookends(t *testing.T, intro, outro time.Duration) {
	t.Helper()
	f.cfg.Audio.IntroPath = filepath.Join(f.dir, "intro.mp3")
	f.cfg.Audio.OutroPath = filepath.Join(f.dir, "outro.mp3")
	if err := testsupport.WriteClip(f.cfg.Audio.IntroPath, intro); err != nil {
		t.Fatalf("WriteClip: %v", err)
	}
	if err := testsupport.WriteClip(f.cfg.Audio.OutroPath, outro); err != nil {
		t.Fatalf("WriteClip: %v", err)
	}
}

func TestAssembleAllSegmentsWithBookends(t *testing.T) {
	f := newFixture(t)
	f.withBookends(t, 1500*time.Millisecond, 2500*time.Millisecond)
	a := assembly.New(f.cfg, f.audio, nil, logging.NewNop())

	res, err := a.Assemble(context.Background(), f.input(f.clips(t, 4)))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	info := res.Info
	if info.IntroMillis != 1500 || info.OutroMillis != 2500 {
		t.Fatalf("unexpected bookends %d / %d", info.IntroMillis, info.OutroMillis)
	}
	if len(info.Chapters) != 4 {
		t.Fatalf("expected 4 chapters, got %d", len(info.Chapters))
	}
	if info.Chapters[0].StartMillis != info.IntroMillis {
		t.Fatalf("first chapter should start after intro, got %d", info.Chapters[0].StartMillis)
	}
	for i := 1; i < len(info.Chapters); i++ {
		prev, cur := info.Chapters[i-1], info.Chapters[i]
		if cur.StartMillis != prev.StartMillis+prev.DurationMillis {
			t.Fatalf("chapter %d starts at %d, want %d", cur.Index, cur.StartMillis, prev.StartMillis+prev.DurationMillis)
		}
	}
	wantTotal := int64(1500 + 1000 + 2000 + 3000 + 4000 + 2500)
	if info.TotalMillis != wantTotal {
		t.Fatalf("expected total %d, got %d", wantTotal, info.TotalMillis)
	}
	got, err := testsupport.ClipLength(res.AudioPath)
	if err != nil {
		t.Fatalf("ClipLength: %v", err)
	}
	if got.Milliseconds() != wantTotal {
		t.Fatalf("assembled audio is %v, metadata says %dms", got, wantTotal)
	}
	if !reflect.DeepEqual(info.IncludedIndices, []int{1, 2, 3, 4}) || len(info.SkippedIndices) != 0 {
		t.Fatalf("unexpected included/skipped %v / %v", info.IncludedIndices, info.SkippedIndices)
	}
}

func TestAssembleSkipPolicyNotesGap(t *testing.T) {
	f := newFixture(t)
	a := assembly.New(f.cfg, f.audio, nil, logging.NewNop())

	res, err := a.Assemble(context.Background(), f.input(f.clips(t, 8, 3)))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	info := res.Info
	if info.GapPolicy != config.GapPolicySkip {
		t.Fatalf("expected skip policy recorded, got %q", info.GapPolicy)
	}
	if len(info.IncludedIndices) != 7 || !reflect.DeepEqual(info.SkippedIndices, []int{3}) {
		t.Fatalf("unexpected included/skipped %v / %v", info.IncludedIndices, info.SkippedIndices)
	}
	gap := info.Chapters[2]
	if !gap.Gap || gap.DurationMillis != 0 || gap.GapFill != config.GapPolicySkip {
		t.Fatalf("unexpected gap chapter %+v", gap)
	}
	if info.Chapters[3].StartMillis != gap.StartMillis {
		t.Fatalf("skip gap should not advance the timeline")
	}
	calls := f.audio.ConcatCalls()
	if len(calls) != 1 || len(calls[0]) != 7 {
		t.Fatalf("expected concat of 7 clips, got %v", calls)
	}
}

func TestAssembleSilencePolicy(t *testing.T) {
	f := newFixture(t, testsupport.WithGapPolicy(config.GapPolicySilence))
	f.cfg.Assembly.GapSeconds = 2
	a := assembly.New(f.cfg, f.audio, nil, logging.NewNop())

	res, err := a.Assemble(context.Background(), f.input(f.clips(t, 3, 2)))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	gap := res.Info.Chapters[1]
	if gap.GapFill != config.GapPolicySilence || gap.DurationMillis != 2000 {
		t.Fatalf("unexpected silence gap %+v", gap)
	}
	if res.Info.TotalMillis != 1000+2000+3000 {
		t.Fatalf("unexpected total %d", res.Info.TotalMillis)
	}
	if len(f.audio.Silences) != 1 {
		t.Fatalf("expected one silence render, got %d", len(f.audio.Silences))
	}
}

func TestAssembleFillerSynthesizedOnce(t *testing.T) {
	f := newFixture(t, testsupport.WithGapPolicy(config.GapPolicyFiller))
	speaker := &testsupport.FakeSpeaker{}
	a := assembly.New(f.cfg, f.audio, speaker, logging.NewNop())
	in := f.input(f.clips(t, 5, 2, 4))

	first, err := a.Assemble(context.Background(), in)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	second, err := a.Assemble(context.Background(), in)
	if err != nil {
		t.Fatalf("second Assemble: %v", err)
	}
	if n := len(speaker.Texts()); n != 1 {
		t.Fatalf("expected filler to be synthesized once, got %d", n)
	}
	for _, idx := range []int{1, 3} {
		if ch := first.Info.Chapters[idx]; ch.GapFill != config.GapPolicyFiller || ch.DurationMillis == 0 {
			t.Fatalf("unexpected filler chapter %+v", ch)
		}
	}
	if !reflect.DeepEqual(first.Info, second.Info) {
		t.Fatalf("re-running assembly changed metadata:\n%+v\n%+v", first.Info, second.Info)
	}
}

func TestAssembleFillerDegradesToSkip(t *testing.T) {
	f := newFixture(t, testsupport.WithGapPolicy(config.GapPolicyFiller))
	speaker := &testsupport.FakeSpeaker{Fail: func(string) error { return testsupport.ErrInjected }}
	a := assembly.New(f.cfg, f.audio, speaker, logging.NewNop())

	res, err := a.Assemble(context.Background(), f.input(f.clips(t, 3, 2)))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if res.Info.GapPolicy != config.GapPolicyFiller {
		t.Fatalf("requested policy should be recorded, got %q", res.Info.GapPolicy)
	}
	if gap := res.Info.Chapters[1]; gap.GapFill != config.GapPolicySkip || gap.DurationMillis != 0 {
		t.Fatalf("expected degraded skip gap, got %+v", gap)
	}
}

func TestAssembleRequiresOneDoneSegment(t *testing.T) {
	f := newFixture(t)
	a := assembly.New(f.cfg, f.audio, nil, logging.NewNop())
	_, err := a.Assemble(context.Background(), f.input(f.clips(t, 2, 1, 2)))
	if !errors.Is(err, assembly.ErrAssembly) {
		t.Fatalf("expected ErrAssembly, got %v", err)
	}
	if len(f.audio.ConcatCalls()) != 0 {
		t.Fatal("no concat expected without done segments")
	}
}

func TestAssembleToleratesMissingBookends(t *testing.T) {
	f := newFixture(t)
	f.cfg.Audio.IntroPath = filepath.Join(f.dir, "missing-intro.mp3")
	a := assembly.New(f.cfg, f.audio, nil, logging.NewNop())
	res, err := a.Assemble(context.Background(), f.input(f.clips(t, 2)))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if res.Info.IntroMillis != 0 || res.Info.Chapters[0].StartMillis != 0 {
		t.Fatalf("missing intro should contribute nothing, got %+v", res.Info)
	}
}

func TestAssembleRerunIsDeterministic(t *testing.T) {
	f := newFixture(t)
	f.withBookends(t, time.Second, time.Second)
	a := assembly.New(f.cfg, f.audio, nil, logging.NewNop())
	in := f.input(f.clips(t, 6, 5))
	first, err := a.Assemble(context.Background(), in)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	second, err := a.Assemble(context.Background(), in)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !reflect.DeepEqual(first.Info, second.Info) {
		t.Fatalf("timings differ between runs")
	}
}

func TestAssembleConcatFailure(t *testing.T) {
	f := newFixture(t)
	f.audio.ConcatErr = testsupport.ErrInjected
	a := assembly.New(f.cfg, f.audio, nil, logging.NewNop())
	_, err := a.Assemble(context.Background(), f.input(f.clips(t, 2)))
	if !errors.Is(err, assembly.ErrAssembly) || !errors.Is(err, testsupport.ErrInjected) {
		t.Fatalf("expected wrapped concat failure, got %v", err)
	}
}
