package episode

import (
	"fmt"
	"path/filepath"
)

// Layout hands out the directory-per-episode paths under a root.
type Layout struct {
	Root string
}

// EpisodeDir is <root>/episode_<n>.
func (l Layout) EpisodeDir(number int) string {
	return filepath.Join(l.Root, EpisodeID(number))
}

// InfoPath is <root>/episode_<n>/episode_info.json.
func (l Layout) InfoPath(number int) string {
	return filepath.Join(l.EpisodeDir(number), "episode_info.json")
}

// SegmentDir is <root>/episode_<n>/segment_<i>.
func (l Layout) SegmentDir(number, index int) string {
	return filepath.Join(l.EpisodeDir(number), fmt.Sprintf("segment_%d", index))
}

// SegmentAudioPath is <root>/episode_<n>/segment_<i>/segment_<i>.mp3.
func (l Layout) SegmentAudioPath(number, index int) string {
	return filepath.Join(l.SegmentDir(number, index), fmt.Sprintf("segment_%d.mp3", index))
}

// SegmentMetadataPath is <root>/episode_<n>/segment_<i>/segment_<i>_metadata.json.
func (l Layout) SegmentMetadataPath(number, index int) string {
	return filepath.Join(l.SegmentDir(number, index), fmt.Sprintf("segment_%d_metadata.json", index))
}

// CompleteAudioPath is <root>/episode_<n>/episode_<n>_complete.mp3.
func (l Layout) CompleteAudioPath(number int) string {
	return filepath.Join(l.EpisodeDir(number), fmt.Sprintf("episode_%d_complete.mp3", number))
}

// WorkDir is a scratch directory for intermediate clips (chunks, gaps, filler).
func (l Layout) WorkDir(number int) string {
	return filepath.Join(l.EpisodeDir(number), ".work")
}

// RunLockPath is held by the process generating the episode. A running
// episode whose lock can be taken has lost its owner.
func (l Layout) RunLockPath(number int) string {
	return filepath.Join(l.EpisodeDir(number), ".lock")
}
