// Package report renders validation summaries as console text, JSON, or
// markdown suitable for pull-request comments.
package report
