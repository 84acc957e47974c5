// Package catalog keeps a SQLite index of generated episodes.
//
// episode_info.json stays the source of truth; the catalog mirrors its
// headline fields (status, segment counts, audio path) so the CLI can list
// episodes and resolve request ids quickly. Queries are built with squirrel.
package catalog
