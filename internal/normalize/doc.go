// Package normalize turns raw, source-specific fields into the canonical
// incident vocabulary.
//
// Every function here is tolerant: malformed input yields a well-defined
// default (no date, impact none, status resolved) rather than an error, so
// a single bad record never aborts a page.
package normalize
