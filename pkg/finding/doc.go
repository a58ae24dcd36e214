// Package finding defines the structured validation result model shared by
// the validation engine, the quota checker, and the report renderers.
//
// A Finding carries a severity level, a human-facing message, a stable rule
// identifier that tooling can assert against, and an optional dotted context
// path into the source document. A Summary buckets findings by level in
// insertion order and derives the process exit code (error=1, warning=2,
// clean=0).
package finding
