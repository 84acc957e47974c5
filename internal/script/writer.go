package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"newscast/internal/episode"
	"newscast/internal/logging"
	"newscast/internal/services"
	"newscast/internal/services/llm"
	"newscast/internal/stage"
	"newscast/internal/textutil"
)

// ErrScript marks a segment for which no script could be produced.
var ErrScript = errors.New("script generation failed")

const (
	wordsPerMinute   = 150
	wordBandFraction = 0.3
	minScriptWords   = 40
	articleTextRunes = 600
	leadSentences    = 2
)

// Completer is the LLM surface used by the writer.
type Completer interface {
	Configured() bool
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Script is the narration text for one segment.
type Script struct {
	Title  string
	Text   string
	Source episode.ScriptSource
}

// Writer produces segment scripts, degrading from the LLM to a simplified
// prompt and finally to an extractive script built from the articles.
type Writer struct {
	llm           Completer
	targetMinutes int
	logger        *slog.Logger
	minWords      int
	simplifiedTry int
}

// WriterOption customizes a Writer.
type WriterOption func(*Writer)

// WithLogger sets the writer's logger.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) { w.logger = logger }
}

// WithMinWords overrides the minimum accepted script length.
func WithMinWords(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.minWords = n
		}
	}
}

// NewWriter returns a Writer. llm may be nil, in which case every script is
// extractive. targetMinutes is the whole episode's target duration.
func NewWriter(client Completer, targetMinutes int, opts ...WriterOption) *Writer {
	w := &Writer{
		llm:           client,
		targetMinutes: targetMinutes,
		logger:        logging.NewNop(),
		minWords:      minScriptWords,
		simplifiedTry: 1,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.NewComponentLogger(w.logger, "script")
	return w
}

type writerState int

const (
	statePrimary writerState = iota
	stateSimplified
	stateExtractive
	stateFailed
)

func (s writerState) String() string {
	switch s {
	case statePrimary:
		return "primary"
	case stateSimplified:
		return "simplified"
	case stateExtractive:
		return "extractive"
	default:
		return "failed"
	}
}

// Write produces the script for plan. It only fails when even the extractive
// fallback yields nothing, or when ctx is cancelled.
func (w *Writer) Write(ctx context.Context, plan SegmentPlan, topic episode.TopicSpec) (Script, error) {
	logger := logging.WithContext(ctx, w.logger)
	band := w.wordBand(plan.Total)

	state := statePrimary
	if w.llm == nil || !w.llm.Configured() {
		state = stateExtractive
	}
	var lastErr error
	for {
		if err := ctx.Err(); err != nil {
			return Script{}, fmt.Errorf("%w: %w", ErrScript, err)
		}
		switch state {
		case statePrimary:
			script, err := w.primary(ctx, plan, topic, band)
			if err == nil {
				return script, nil
			}
			lastErr = err
			w.logFallback(logger, state, err)
			state = stateSimplified

		case stateSimplified:
			script, err := w.simplified(ctx, plan, topic, band)
			if err == nil {
				return script, nil
			}
			lastErr = err
			w.logFallback(logger, state, err)
			state = stateExtractive

		case stateExtractive:
			text := Extractive(plan)
			if strings.TrimSpace(text) != "" {
				return Script{Title: plan.Title, Text: text, Source: episode.ScriptExtractive}, nil
			}
			state = stateFailed

		default:
			if lastErr == nil {
				lastErr = errEmpty
			}
			return Script{}, fmt.Errorf("%w: %w", ErrScript,
				services.Wrap(services.ErrValidation, "script", "write", "no usable script for segment "+fmt.Sprint(plan.Index), lastErr))
		}
	}
}

func (w *Writer) logFallback(logger *slog.Logger, from writerState, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	logging.WarnWithContext(logger, "script attempt rejected", "script_fallback",
		logging.String("writer_state", from.String()),
		logging.Error(err),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.String(logging.FieldErrorHint, "writer falls back to a simpler strategy"),
		logging.String(logging.FieldImpact, "segment script may be less polished"),
	)
}

type wordBand struct {
	target, low, high int
}

func (w *Writer) wordBand(total int) wordBand {
	if total < 1 {
		total = 1
	}
	minutes := float64(w.targetMinutes) / float64(total)
	target := int(math.Round(minutes * wordsPerMinute))
	if target < w.minWords {
		target = w.minWords
	}
	return wordBand{
		target: target,
		low:    int(math.Round(float64(target) * (1 - wordBandFraction))),
		high:   int(math.Round(float64(target) * (1 + wordBandFraction))),
	}
}

func (w *Writer) primary(ctx context.Context, plan SegmentPlan, topic episode.TopicSpec, band wordBand) (Script, error) {
	content, err := w.llm.CompleteJSON(ctx, primarySystemPrompt, primaryUserPrompt(plan, topic, band))
	if err != nil {
		return Script{}, err
	}
	var reply struct {
		Title     string `json:"title"`
		Narration string `json:"narration"`
	}
	if err := llm.DecodeLLMJSON(content, &reply); err != nil {
		return Script{}, services.Wrap(services.ErrValidation, "script", "decode reply", "malformed script payload", err)
	}
	text := Sanitize(reply.Narration)
	if err := Validate(text, w.minWordsFor(band)); err != nil {
		return Script{}, services.Wrap(services.ErrValidation, "script", "validate", "primary script rejected", err)
	}
	title := strings.TrimSpace(reply.Title)
	if title == "" || segmentRefPattern.MatchString(title) {
		title = plan.Title
	}
	return Script{Title: title, Text: text, Source: episode.ScriptLLM}, nil
}

func (w *Writer) simplified(ctx context.Context, plan SegmentPlan, topic episode.TopicSpec, band wordBand) (Script, error) {
	var lastErr error
	for attempt := 0; attempt < w.simplifiedTry; attempt++ {
		content, err := w.llm.Complete(ctx, simplifiedSystemPrompt, simplifiedUserPrompt(plan, topic, band))
		if err != nil {
			lastErr = err
			continue
		}
		text := Sanitize(llm.StripCodeFence(content))
		if err := Validate(text, w.minWordsFor(band)); err != nil {
			lastErr = services.Wrap(services.ErrValidation, "script", "validate", "simplified script rejected", err)
			continue
		}
		return Script{Title: plan.Title, Text: text, Source: episode.ScriptSimplified}, nil
	}
	return Script{}, lastErr
}

// minWordsFor is half the band's low edge, never below the configured floor.
func (w *Writer) minWordsFor(band wordBand) int {
	if half := band.low / 2; half > w.minWords {
		return half
	}
	return w.minWords
}

// Extractive builds a script from the articles' own lead sentences.
func Extractive(plan SegmentPlan) string {
	var parts []string
	category := strings.ToLower(plan.Category)
	if plan.Recap {
		parts = append(parts, "Let's revisit one of today's stories.")
	} else {
		parts = append(parts, fmt.Sprintf("Here is the latest in %s news.", category))
	}
	stories := 0
	for _, a := range plan.Articles {
		title := strings.TrimSpace(a.Title)
		if title == "" {
			continue
		}
		line := fmt.Sprintf("From %s: %s", strings.TrimSpace(a.Source), ensurePeriod(title))
		if lead := textutil.LeadSentences(a.Text(), leadSentences); lead != "" {
			line += " " + lead
		}
		parts = append(parts, line)
		stories++
	}
	if stories == 0 {
		return ""
	}
	if plan.Recap {
		parts = append(parts, "That's our look back.")
	} else {
		parts = append(parts, fmt.Sprintf("That's the latest in %s.", category))
	}
	return strings.Join(parts, "\n\n")
}

func ensurePeriod(s string) string {
	if r, _ := utf8.DecodeLastRuneInString(s); strings.ContainsRune(".!?", r) {
		return s
	}
	return s + "."
}

// HealthCheck reports whether scripts can use the LLM. The writer is always
// ready because the extractive fallback needs nothing external.
func (w *Writer) HealthCheck(context.Context) stage.Health {
	health := stage.Healthy("script")
	if w.llm == nil || !w.llm.Configured() {
		health.Detail = "llm not configured; scripts will be extractive"
	}
	return health
}
