// Package config loads, normalizes, and validates newscast configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and GROQ_API_KEY. The Config value is read-only once loaded
// and is passed explicitly to every stage.
package config
