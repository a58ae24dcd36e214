// Package workspace provisions and reconciles the Terraform Enterprise
// workspaces that deploy each account's security groups, and triggers runs
// for changed accounts.
package workspace
