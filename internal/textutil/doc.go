// Package textutil holds the text handling shared by the collector, the
// script writer, and the narration synthesizer: headline normalization,
// term vectors with cosine similarity and IDF weighting, English detection,
// and sentence-bounded chunking of narration.
//
// Folding applies NFKD, strips combining marks, and lowercases, so accented
// and full-width variants of a word compare equal.
package textutil
