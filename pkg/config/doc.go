// Package config parses per-account security-group documents into a model
// that preserves author order and keeps wrongly typed fields intact for the
// validator to report.
package config
