package workflow

import (
	"context"
	"strings"

	"newscast/internal/episode"
	"newscast/internal/narration"
	"newscast/internal/services"
)

// runSegment scripts and narrates one segment, reporting each transition.
// The run loop drains events until all workers return, so sends never block
// forever.
func (m *Manager) runSegment(ctx context.Context, job segmentJob, events chan<- segmentEvent) {
	index := job.plan.Index
	ctx = services.WithSegmentIndex(ctx, index)
	send := func(ev segmentEvent) {
		ev.index = index
		ev.at = m.now()
		events <- ev
	}

	if ctx.Err() != nil {
		// Never started; the run loop abandons it after the pool drains.
		return
	}
	send(segmentEvent{to: episode.SegmentScripting})

	scriptCtx := services.WithStage(ctx, "script")
	written, err := m.stages.Writer.Write(scriptCtx, job.plan, job.topic)
	if err != nil {
		send(segmentEvent{to: episode.SegmentFailed, err: err})
		return
	}
	send(segmentEvent{to: episode.SegmentNarrating, script: &written})

	narrateCtx := services.WithStage(ctx, "narration")
	result, err := m.stages.Narrator.Synthesize(narrateCtx, narration.Request{
		Index:      index,
		Text:       written.Text,
		OutputPath: job.audioPath,
		WorkDir:    job.workDir,
	})
	if err != nil {
		send(segmentEvent{to: episode.SegmentFailed, err: err})
		return
	}
	send(segmentEvent{to: episode.SegmentDone, result: &result})
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
