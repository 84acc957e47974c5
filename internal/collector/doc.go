// Package collector turns a topic into a ranked, deduplicated article set.
//
// Every source in the feed catalog is queried concurrently under its own
// timeout. Articles are categorized by keyword, deduplicated by normalized
// title and fingerprint similarity, and ranked by topic relevance blended
// with recency. A source failure only narrows the pool; Collect returns
// ErrCollection when nothing usable remains.
package collector
