// Package workflow drives episode requests through the pipeline.
//
// The Manager accepts a topic and segment count, allocates an episode
// directory, and runs collection, planning, per-segment scripting and
// narration, and final assembly. Each episode has one run loop that owns its
// state; segment workers on a bounded errgroup pool report transitions over a
// channel and the loop applies and persists them to episode_info.json and the
// catalog.
//
// Episodes end complete, partial (some segments failed or were cancelled),
// or failed. The terminal state is written once. Reconcile seals episodes
// whose owning process died, detected through a per-episode run lock.
package workflow
