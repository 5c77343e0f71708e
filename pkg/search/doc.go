// Package search implements the member-directory search cycle: parsing raw
// request parameters into structured criteria, building a parameterized
// query against the directory store's relational shape, sanitizing the
// resulting rows into one of three output formats, and paginating the final
// result set.
//
// The layer degrades gracefully on malformed input: unknown parameters are
// dropped, wrong-shaped values become absent filters, and out-of-range page
// numbers clamp. Infrastructure failures from the store are returned to the
// caller unmodified.
package search
