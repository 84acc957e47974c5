// Package testsupport holds fixtures shared by package tests: temp-dir
// configs, fake audio clips, and fake TTS backends.
package testsupport
