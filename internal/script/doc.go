// Package script plans episode segments and writes their narration.
//
// Plan splits ranked articles into contiguous, category-coherent segments.
// Writer turns one plan into spoken text through an explicit fallback chain:
// a JSON-mode LLM completion, then a plain-text retry with a shorter prompt,
// then an extractive script stitched from the articles' lead sentences.
package script
