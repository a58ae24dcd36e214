// Package cli implements the command-line interface for the sgctl tool.
//
// # Overview
//
// sgctl manages AWS security group configuration as code. Account
// directories under accounts/<account-id> each hold a security-groups.yaml
// document, and sgctl provides the pipeline commands that validate those
// documents, verify quota headroom, provision Terraform Enterprise
// workspaces, and build CI job matrices.
//
// # Commands
//
// validate - Validate an account's security group definitions:
//
//	sgctl validate accounts/123456789012 [--format text|json|markdown]
//
// Runs the full validation pass set against the account document: schema,
// account identity, baseline profiles, rule-level checks, type overrides,
// naming, prefix-list references, and character encoding.
//
// quotas - Check AWS quota headroom:
//
//	sgctl quotas 123456789012 [--region us-west-2] [--vpc-id vpc-...]
//
// Compares the proposed configuration against live usage and Service Quotas
// limits, warning at 80% utilization and failing when a limit would be
// exceeded.
//
// workspace - Manage Terraform Enterprise workspaces:
//
//	sgctl workspace plan|apply|sync [--org ORG] [--changed-accounts IDs]
//
// Reconciles account directories with sg-<account-id> workspaces: creates
// missing ones, fixes configuration drift, and triggers runs for changed
// accounts.
//
// discover - Build CI job matrices:
//
//	sgctl discover [--changed-only] [--format matrix|json]
//
// Enumerates account directories with their metadata and deployment
// priority, optionally restricted to accounts changed relative to a git
// base ref.
//
// # Exit Codes
//
//	0  Success
//	1  Errors (validation errors, quota violations, apply failures)
//	2  Warnings (validate, quotas) or pending changes (workspace plan)
//
// # Environment Variables
//
//	LOG_LEVEL           Logging verbosity (debug, info, warn, error)
//	AWS_DEFAULT_REGION  Default region for quota checks
//	TFE_TOKEN           Terraform Enterprise API token
//	TFE_ORG             Terraform Enterprise organization
//	TFE_ADDRESS         Terraform Enterprise hostname
//	TFE_PROJECT_ID      Project for newly created workspaces
//
// # Architecture
//
// The CLI uses the urfave/cli/v3 framework and delegates to specialized
// packages:
//   - pkg/validator - security group document validation
//   - pkg/quota - AWS quota checks
//   - pkg/workspace - Terraform Enterprise provisioning
//   - pkg/discover - account inventory for CI
//   - pkg/report - validation report rendering
//   - pkg/logging - structured logging
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/sg-platform/sgctl/pkg/cli.version=1.0.0'"
package cli
