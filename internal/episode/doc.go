// Package episode defines the data model shared by every pipeline stage:
// articles, topic specs, requests, segments, and episodes, plus the on-disk
// layout and store that persist them.
//
// An Episode is owned by exactly one orchestrator run loop. Everyone else
// works with Snapshot copies. Segment status only moves forward
// (pending → scripting → narrating → done, or → failed), and once an episode
// reaches a terminal status its episode_info.json is sealed.
package episode
