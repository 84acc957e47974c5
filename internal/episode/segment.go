package episode

import (
	"errors"
	"fmt"
	"time"
)

// SegmentStatus is the lifecycle position of one segment.
type SegmentStatus string

const (
	SegmentPending   SegmentStatus = "pending"
	SegmentScripting SegmentStatus = "scripting"
	SegmentNarrating SegmentStatus = "narrating"
	SegmentDone      SegmentStatus = "done"
	SegmentFailed    SegmentStatus = "failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s SegmentStatus) IsTerminal() bool {
	return s == SegmentDone || s == SegmentFailed
}

// ScriptSource records which writer state produced a script.
type ScriptSource string

const (
	ScriptLLM        ScriptSource = "llm"
	ScriptSimplified ScriptSource = "simplified"
	ScriptExtractive ScriptSource = "extractive"
)

// ErrInvalidTransition is returned when a segment would move backwards.
var ErrInvalidTransition = errors.New("invalid segment transition")

// Segment is one independently produced narration unit.
type Segment struct {
	Index            int           `json:"index"`
	Title            string        `json:"title,omitempty"`
	Recap            bool          `json:"recap,omitempty"`
	Status           SegmentStatus `json:"status"`
	ScriptText       string        `json:"script_text,omitempty"`
	ScriptSource     ScriptSource  `json:"script_source,omitempty"`
	AudioPath        string        `json:"audio_path,omitempty"`
	DurationMillis   int64         `json:"duration_ms,omitempty"`
	Error            string        `json:"error,omitempty"`
	SourceArticleIDs []string      `json:"source_article_ids"`
	StartedAt        *time.Time    `json:"started_at,omitempty"`
	FinishedAt       *time.Time    `json:"finished_at,omitempty"`
}

// Duration returns the recorded audio duration.
func (s Segment) Duration() time.Duration {
	return time.Duration(s.DurationMillis) * time.Millisecond
}

// allowedTransitions lists the stage moves. A stage can only fail work it
// started; pending segments are failed through Abandon.
var allowedTransitions = map[SegmentStatus][]SegmentStatus{
	SegmentPending:   {SegmentScripting},
	SegmentScripting: {SegmentNarrating, SegmentFailed},
	SegmentNarrating: {SegmentDone, SegmentFailed},
}

// Advance moves the segment to status `to`, stamping start and finish times.
// Regressions and moves out of a terminal status return ErrInvalidTransition.
func (s *Segment) Advance(to SegmentStatus, at time.Time) error {
	for _, next := range allowedTransitions[s.Status] {
		if next != to {
			continue
		}
		s.Status = to
		stamp := at.UTC()
		if to == SegmentScripting && s.StartedAt == nil {
			s.StartedAt = &stamp
		}
		if to.IsTerminal() {
			s.FinishedAt = &stamp
		}
		return nil
	}
	return fmt.Errorf("%w: segment %d %s -> %s", ErrInvalidTransition, s.Index, s.Status, to)
}

// Abandon fails a segment that will never finish, whatever stage it reached,
// because its episode was cancelled or its process died.
func (s *Segment) Abandon(reason string, at time.Time) error {
	if s.Status.IsTerminal() {
		return fmt.Errorf("%w: segment %d already %s", ErrInvalidTransition, s.Index, s.Status)
	}
	stamp := at.UTC()
	s.Status = SegmentFailed
	s.Error = reason
	s.FinishedAt = &stamp
	return nil
}

func (s Segment) clone() Segment {
	out := s
	out.SourceArticleIDs = append([]string(nil), s.SourceArticleIDs...)
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		out.FinishedAt = &t
	}
	return out
}
