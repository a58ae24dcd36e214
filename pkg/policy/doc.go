// Package policy locates the repository root and loads the guardrails and
// prefix-list documents that govern every account configuration.
package policy
