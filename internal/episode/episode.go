package episode

import (
	"errors"
	"fmt"
	"time"
)

// SchemaVersion is the episode_info.json schema revision.
const SchemaVersion = 1

// Status is the overall lifecycle of an episode.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusPartial || s == StatusFailed
}

// ErrSealed is returned when a terminal episode would be modified.
var ErrSealed = errors.New("episode is sealed")

// Chapter is one entry of the assembled episode's chapter list.
type Chapter struct {
	Index          int      `json:"index"`
	Title          string   `json:"title"`
	StartMillis    int64    `json:"start_ms"`
	DurationMillis int64    `json:"duration_ms"`
	ArticleIDs     []string `json:"article_ids"`
	Gap            bool     `json:"gap,omitempty"`
	GapFill        string   `json:"gap_fill,omitempty"`
}

// AssemblyInfo records how the complete audio was stitched together.
type AssemblyInfo struct {
	GapPolicy       string    `json:"gap_policy"`
	IntroMillis     int64     `json:"intro_ms"`
	OutroMillis     int64     `json:"outro_ms"`
	TotalMillis     int64     `json:"total_ms"`
	IncludedIndices []int     `json:"included_segments"`
	SkippedIndices  []int     `json:"skipped_segments,omitempty"`
	Chapters        []Chapter `json:"chapters"`
}

func (a *AssemblyInfo) clone() *AssemblyInfo {
	if a == nil {
		return nil
	}
	out := *a
	out.IncludedIndices = append([]int(nil), a.IncludedIndices...)
	out.SkippedIndices = append([]int(nil), a.SkippedIndices...)
	out.Chapters = make([]Chapter, len(a.Chapters))
	for i, ch := range a.Chapters {
		ch.ArticleIDs = append([]string(nil), ch.ArticleIDs...)
		out.Chapters[i] = ch
	}
	return &out
}

// Episode is the orchestrator-owned record of one generation run. It is
// serialized verbatim as episode_info.json.
type Episode struct {
	SchemaVersion     int           `json:"schema_version"`
	EpisodeID         string        `json:"episode_id"`
	Number            int           `json:"episode_number"`
	RequestID         string        `json:"request_id"`
	Topic             TopicSpec     `json:"topic"`
	Status            Status        `json:"status"`
	Segments          []Segment     `json:"segments"`
	Articles          []Article     `json:"articles"`
	Dir               string        `json:"dir"`
	CompleteAudioPath string        `json:"complete_audio_path,omitempty"`
	MetadataPath      string        `json:"metadata_path"`
	Assembly          *AssemblyInfo `json:"assembly,omitempty"`
	Error             string        `json:"error,omitempty"`
	ErrorKind         string        `json:"error_kind,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
}

// New creates a running episode with all segment slots in pending.
func New(req Request, number int, layout Layout, now time.Time) *Episode {
	now = now.UTC()
	ep := &Episode{
		SchemaVersion: SchemaVersion,
		EpisodeID:     EpisodeID(number),
		Number:        number,
		RequestID:     req.RequestID,
		Topic:         req.Topic,
		Status:        StatusRunning,
		Segments:      make([]Segment, req.SegmentCount),
		Articles:      []Article{},
		Dir:           layout.EpisodeDir(number),
		MetadataPath:  layout.InfoPath(number),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i := range ep.Segments {
		ep.Segments[i] = Segment{Index: i + 1, Status: SegmentPending, SourceArticleIDs: []string{}}
	}
	return ep
}

// EpisodeID formats the directory-style identifier for an episode number.
func EpisodeID(number int) string {
	return fmt.Sprintf("episode_%d", number)
}

// Segment returns a pointer to the segment with the given 1-based index.
func (e *Episode) Segment(index int) (*Segment, error) {
	if index < 1 || index > len(e.Segments) {
		return nil, fmt.Errorf("segment %d out of range 1..%d", index, len(e.Segments))
	}
	return &e.Segments[index-1], nil
}

// Counts returns the number of done and failed segments and the total.
func (e *Episode) Counts() (done, failed, total int) {
	for _, seg := range e.Segments {
		switch seg.Status {
		case SegmentDone:
			done++
		case SegmentFailed:
			failed++
		}
	}
	return done, failed, len(e.Segments)
}

// Progress renders "k of N done".
func (e *Episode) Progress() string {
	done, _, total := e.Counts()
	return fmt.Sprintf("%d of %d done", done, total)
}

// Unfinished returns the indices of segments not yet terminal.
func (e *Episode) Unfinished() []int {
	var out []int
	for _, seg := range e.Segments {
		if !seg.Status.IsTerminal() {
			out = append(out, seg.Index)
		}
	}
	return out
}

// Finish moves the episode to a terminal status. A second call returns ErrSealed.
func (e *Episode) Finish(status Status, reason, kind string, at time.Time) error {
	if e.Status.IsTerminal() {
		return fmt.Errorf("%w: %s already %s", ErrSealed, e.EpisodeID, e.Status)
	}
	if !status.IsTerminal() {
		return fmt.Errorf("finish %s: %q is not a terminal status", e.EpisodeID, status)
	}
	at = at.UTC()
	e.Status = status
	e.Error = reason
	e.ErrorKind = kind
	e.UpdatedAt = at
	e.CompletedAt = &at
	if status == StatusFailed {
		e.CompleteAudioPath = ""
	}
	return nil
}

// Touch updates the modification timestamp.
func (e *Episode) Touch(at time.Time) {
	e.UpdatedAt = at.UTC()
}

// Snapshot returns a deep copy safe to hand to other goroutines.
func (e *Episode) Snapshot() Episode {
	out := *e
	out.Segments = make([]Segment, len(e.Segments))
	for i, seg := range e.Segments {
		out.Segments[i] = seg.clone()
	}
	out.Articles = append([]Article(nil), e.Articles...)
	if out.Articles == nil {
		out.Articles = []Article{}
	}
	out.Assembly = e.Assembly.clone()
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// ArticlesByID resolves ids against the episode's article list, preserving order.
func (e *Episode) ArticlesByID(ids []string) []Article {
	index := make(map[string]Article, len(e.Articles))
	for _, a := range e.Articles {
		index[a.ID] = a
	}
	out := make([]Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := index[id]; ok {
			out = append(out, a)
		}
	}
	return out
}
