// Package narration turns segment scripts into encoded audio clips.
package narration
