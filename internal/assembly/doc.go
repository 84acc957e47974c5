// Package assembly concatenates finished segments into the complete episode
// and records chapter timings.
//
// Failed segments are handled by the gap policy: skip leaves a zero-length
// gap chapter, silence inserts a generated silent clip, and filler inserts a
// spoken notice synthesized once per episode. A gap clip that cannot be
// produced degrades to skip.
package assembly
