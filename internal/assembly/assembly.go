package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newscast/internal/config"
	"newscast/internal/episode"
	"newscast/internal/logging"
	"newscast/internal/media/audio"
	"newscast/internal/services"
	"newscast/internal/services/tts"
	"newscast/internal/stage"
)

// ErrAssembly marks an episode whose complete audio could not be produced.
var ErrAssembly = errors.New("assembly failed")

const (
	silenceClipName = "gap_silence.mp3"
	fillerClipName  = "gap_filler"
)

// Clip is one segment slot in index order. Clips that are not Done become
// gaps handled by the gap policy.
type Clip struct {
	Index      int
	Title      string
	AudioPath  string
	Duration   time.Duration
	ArticleIDs []string
	Done       bool
}

// Input describes one assembly run.
type Input struct {
	Segments   []Clip
	OutputPath string
	// WorkDir holds generated gap clips; filler audio cached here is reused.
	WorkDir string
}

// Result is the assembled file and its timing metadata.
type Result struct {
	AudioPath string
	Info      episode.AssemblyInfo
}

// Assembler stitches intro, segments, and outro into one file.
type Assembler struct {
	cfg       config.Assembly
	introPath string
	outroPath string
	processor audio.Processor
	speaker   tts.Speaker
	logger    *slog.Logger
}

// New builds an Assembler. speaker is only used by the filler gap policy and
// may be nil.
func New(cfg *config.Config, processor audio.Processor, speaker tts.Speaker, logger *slog.Logger) *Assembler {
	return &Assembler{
		cfg:       cfg.Assembly,
		introPath: cfg.Audio.IntroPath,
		outroPath: cfg.Audio.OutroPath,
		processor: processor,
		speaker:   speaker,
		logger:    logging.NewComponentLogger(logger, "assembly"),
	}
}

// Assemble concatenates intro, done segments in index order, and outro.
// Failed segments follow the configured gap policy. Chapter timings are
// derived only from recorded durations rounded to milliseconds, so the same
// finished set always yields the same metadata.
func (a *Assembler) Assemble(ctx context.Context, in Input) (Result, error) {
	logger := logging.WithContext(ctx, a.logger)
	if in.OutputPath == "" {
		return Result{}, assemblyError(services.Wrap(services.ErrValidation, "assembly", "assemble", "output path is required", nil))
	}
	doneCount := 0
	for _, clip := range in.Segments {
		if clip.Done {
			doneCount++
		}
	}
	if doneCount == 0 {
		return Result{}, assemblyError(services.Wrap(services.ErrValidation, "assembly", "assemble", "no successful segments", nil))
	}

	policy := a.cfg.GapPolicy
	if policy == "" {
		policy = config.GapPolicySkip
	}
	info := episode.AssemblyInfo{GapPolicy: policy, Chapters: []episode.Chapter{}}
	var inputs []string

	introMillis, introOK := a.bookend(ctx, logger, "intro", a.introPath)
	if introOK {
		inputs = append(inputs, a.introPath)
		info.IntroMillis = introMillis
	}

	var gap *gapClip
	if doneCount < len(in.Segments) {
		gap = a.prepareGap(ctx, logger, policy, in.WorkDir)
		if err := ctx.Err(); err != nil {
			return Result{}, assemblyError(err)
		}
	}

	cursor := info.IntroMillis
	for _, clip := range in.Segments {
		chapter := episode.Chapter{
			Index:       clip.Index,
			Title:       clip.Title,
			StartMillis: cursor,
			ArticleIDs:  append([]string{}, clip.ArticleIDs...),
		}
		if clip.Done {
			if clip.AudioPath == "" {
				return Result{}, assemblyError(services.Wrap(services.ErrValidation, "assembly", "assemble",
					fmt.Sprintf("segment %d has no audio", clip.Index), nil))
			}
			chapter.DurationMillis = clip.Duration.Round(time.Millisecond).Milliseconds()
			inputs = append(inputs, clip.AudioPath)
			info.IncludedIndices = append(info.IncludedIndices, clip.Index)
		} else {
			chapter.Gap = true
			chapter.GapFill = config.GapPolicySkip
			if gap != nil {
				chapter.GapFill = gap.fill
				chapter.DurationMillis = gap.millis
				inputs = append(inputs, gap.path)
			}
			info.SkippedIndices = append(info.SkippedIndices, clip.Index)
		}
		cursor += chapter.DurationMillis
		info.Chapters = append(info.Chapters, chapter)
	}

	outroMillis, outroOK := a.bookend(ctx, logger, "outro", a.outroPath)
	if outroOK {
		inputs = append(inputs, a.outroPath)
		info.OutroMillis = outroMillis
	}
	info.TotalMillis = cursor + info.OutroMillis

	if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0o755); err != nil {
		return Result{}, assemblyError(services.Wrap(services.ErrConfiguration, "assembly", "prepare", "create output directory", err))
	}
	if err := a.processor.Concat(ctx, inputs, in.OutputPath); err != nil {
		return Result{}, assemblyError(err)
	}

	logger.Info("episode assembled",
		logging.Event("episode_assembled"),
		logging.Int("included", len(info.IncludedIndices)),
		logging.Int("gaps", len(info.SkippedIndices)),
		logging.String("gap_policy", policy),
		logging.Duration("total", time.Duration(info.TotalMillis)*time.Millisecond),
		logging.String("path", in.OutputPath),
	)
	return Result{AudioPath: in.OutputPath, Info: info}, nil
}

// bookend probes an optional intro or outro. Missing assets are tolerated.
func (a *Assembler) bookend(ctx context.Context, logger *slog.Logger, name, path string) (int64, bool) {
	if strings.TrimSpace(path) == "" {
		return 0, false
	}
	if _, err := os.Stat(path); err != nil {
		logging.WarnWithContext(logger, name+" asset unavailable", "bookend_missing",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check audio."+name+"_path"),
			logging.String(logging.FieldImpact, "episode assembled without "+name),
		)
		return 0, false
	}
	length, err := a.processor.Probe(ctx, path)
	if err != nil {
		logging.WarnWithContext(logger, name+" asset unreadable", "bookend_unreadable",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "re-encode the "+name+" asset"),
			logging.String(logging.FieldImpact, "episode assembled without "+name),
		)
		return 0, false
	}
	return length.Round(time.Millisecond).Milliseconds(), true
}

func assemblyError(err error) error {
	return fmt.Errorf("%w: %w", ErrAssembly, err)
}

// HealthCheck reports missing music beds. They are optional, so the
// assembler stays ready.
func (a *Assembler) HealthCheck(context.Context) stage.Health {
	health := stage.Healthy("assembly")
	var missing []string
	for _, path := range []string{a.introPath, a.outroPath} {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, filepath.Base(path))
		}
	}
	if len(missing) > 0 {
		health.Detail = "missing music beds: " + strings.Join(missing, ", ")
	}
	return health
}
