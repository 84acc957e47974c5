// Package main hosts the newscast CLI entrypoint and command graph.
//
// Commands load configuration once, open the episode catalog, and drive a
// workflow.Manager in-process: generate runs an episode to completion in the
// foreground while the read-only commands (status, list, artifact) consult
// the catalog and episode_info.json files. Stale running episodes left by a
// crashed process are reconciled before any command touches the manager.
package main
