package episode

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"newscast/internal/fileutil"
)

// Store persists episode_info.json and per-segment metadata files.
type Store struct {
	layout   Layout
	lockPath string
}

// NewStore binds a store to a layout. lockPath guards episode number allocation
// across processes.
func NewStore(layout Layout, lockPath string) *Store {
	return &Store{layout: layout, lockPath: lockPath}
}

// Layout returns the store's path layout.
func (s *Store) Layout() Layout {
	return s.layout
}

// Allocate reserves the next episode number by creating its directory while
// holding the allocation lock.
func (s *Store) Allocate() (int, error) {
	if err := os.MkdirAll(s.layout.Root, 0o755); err != nil {
		return 0, fmt.Errorf("create episodes dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return 0, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(s.lockPath)
	if err := lock.Lock(); err != nil {
		return 0, fmt.Errorf("acquire episode lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	next, err := s.highestNumber()
	if err != nil {
		return 0, err
	}
	next++
	if err := os.Mkdir(s.layout.EpisodeDir(next), 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", EpisodeID(next), err)
	}
	return next, nil
}

func (s *Store) highestNumber() (int, error) {
	numbers, err := s.Numbers()
	if err != nil {
		return 0, err
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	return numbers[len(numbers)-1], nil
}

// Numbers lists allocated episode numbers in ascending order. A missing root
// directory yields an empty list.
func (s *Store) Numbers() ([]int, error) {
	entries, err := os.ReadDir(s.layout.Root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan episodes dir: %w", err)
	}
	var numbers []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		raw, ok := strings.CutPrefix(entry.Name(), "episode_")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}

// Save writes episode_info.json atomically. Saving over a file that already
// records a terminal status returns ErrSealed.
func (s *Store) Save(ep *Episode) error {
	path := s.layout.InfoPath(ep.Number)
	existing, err := readInfo(path)
	switch {
	case err == nil:
		if existing.Status.IsTerminal() {
			return fmt.Errorf("%w: %s is %s on disk", ErrSealed, ep.EpisodeID, existing.Status)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return err
	}
	return fileutil.WriteJSONAtomic(path, ep)
}

// Load reads episode_info.json for an episode number.
func (s *Store) Load(number int) (*Episode, error) {
	return readInfo(s.layout.InfoPath(number))
}

func readInfo(path string) (*Episode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ep Episode
	if err := json.Unmarshal(data, &ep); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &ep, nil
}

// SegmentMetadata is the small per-segment metadata file.
type SegmentMetadata struct {
	EpisodeID      string        `json:"episode_id"`
	Index          int           `json:"index"`
	Title          string        `json:"title,omitempty"`
	Status         SegmentStatus `json:"status"`
	ScriptSource   ScriptSource  `json:"script_source,omitempty"`
	ScriptText     string        `json:"script_text,omitempty"`
	AudioPath      string        `json:"audio_path,omitempty"`
	DurationMillis int64         `json:"duration_ms,omitempty"`
	Error          string        `json:"error,omitempty"`
	Articles       []ArticleRef  `json:"articles"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// SaveSegment writes segment_<i>_metadata.json for one segment.
func (s *Store) SaveSegment(ep *Episode, seg Segment, at time.Time) error {
	refs := make([]ArticleRef, 0, len(seg.SourceArticleIDs))
	for _, a := range ep.ArticlesByID(seg.SourceArticleIDs) {
		refs = append(refs, a.Ref())
	}
	meta := SegmentMetadata{
		EpisodeID:      ep.EpisodeID,
		Index:          seg.Index,
		Title:          seg.Title,
		Status:         seg.Status,
		ScriptSource:   seg.ScriptSource,
		ScriptText:     seg.ScriptText,
		AudioPath:      seg.AudioPath,
		DurationMillis: seg.DurationMillis,
		Error:          seg.Error,
		Articles:       refs,
		UpdatedAt:      at.UTC(),
	}
	return fileutil.WriteJSONAtomic(s.layout.SegmentMetadataPath(ep.Number, seg.Index), meta)
}

// Seal forces a non-terminal on-disk episode into failed with reason. It is
// used to reconcile runs abandoned by a dead process.
func (s *Store) Seal(number int, reason string, at time.Time) (*Episode, error) {
	ep, err := s.Load(number)
	if err != nil {
		return nil, err
	}
	if ep.Status.IsTerminal() {
		return ep, nil
	}
	for i := range ep.Segments {
		seg := &ep.Segments[i]
		if !seg.Status.IsTerminal() {
			_ = seg.Abandon(reason, at)
		}
	}
	if err := ep.Finish(StatusFailed, reason, "interrupted", at); err != nil {
		return nil, err
	}
	if err := s.Save(ep); err != nil {
		return nil, err
	}
	return ep, nil
}
