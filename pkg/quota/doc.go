// Package quota pre-checks AWS security-group limits against an account's
// proposed configuration, warning at 80% utilization and failing when a
// deployment would exceed a limit.
package quota
