// Package services holds the error taxonomy and context keys shared by the
// pipeline stages and their external clients (LLM, TTS, feeds, ffmpeg).
//
// Stages wrap failures with Wrap and one of the Err* markers; the workflow
// reads the marker back with Kind to decide whether a segment failure is a
// validation, external tool, or transient network problem.
package services
