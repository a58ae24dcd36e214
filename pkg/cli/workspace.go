package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/sg-platform/sgctl/pkg/serializer"
	verspkg "github.com/sg-platform/sgctl/pkg/version"
	"github.com/sg-platform/sgctl/pkg/workspace"
)

var workspaceFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "org",
		Usage:   "Terraform Enterprise organization",
		Sources: cli.EnvVars("TFE_ORG"),
	},
	&cli.StringFlag{
		Name:    "token",
		Usage:   "Terraform Enterprise API token",
		Sources: cli.EnvVars("TFE_TOKEN"),
	},
	&cli.StringFlag{
		Name:    "address",
		Usage:   "Terraform Enterprise hostname",
		Sources: cli.EnvVars("TFE_ADDRESS"),
		Value:   workspace.DefaultAddress,
	},
	&cli.StringFlag{
		Name:  "repo-root",
		Usage: "Repository root holding the accounts/ tree",
		Value: ".",
	},
	&cli.StringFlag{
		Name:  "changed-accounts",
		Usage: "Comma-separated account ids changed in this revision",
	},
	&cli.StringFlag{
		Name:  "vcs-repo",
		Usage: "VCS repository identifier (org/repo) to connect workspaces to",
	},
	&cli.StringFlag{
		Name:  "vcs-oauth-token-id",
		Usage: "OAuth token id for the VCS connection",
	},
	&cli.StringFlag{
		Name:    "project-id",
		Usage:   "TFE project to place new workspaces in",
		Sources: cli.EnvVars("TFE_PROJECT_ID"),
	},
	&cli.StringFlag{
		Name:  "terraform-version",
		Usage: "Terraform version for new workspaces",
		Value: workspace.DefaultTerraformVersion,
	},
	&cli.BoolFlag{
		Name:  "auto-apply",
		Usage: "Enable auto-apply on workspaces and runs",
	},
}

func workspaceCmd() *cli.Command {
	return &cli.Command{
		Name:                  "workspace",
		EnableShellCompletion: true,
		Usage:                 "Manage Terraform Enterprise workspaces for account directories",
		Description: `Reconcile account directories with their Terraform Enterprise workspaces.

Each account gets a workspace named sg-<account-id>, scoped to the account
directory with trigger patterns covering the account files, the shared
modules, and the platform policy documents.

Without TFE credentials (--org and --token, or TFE_ORG and TFE_TOKEN), plan
runs in offline dry-run mode and assumes every workspace must be created.

# Examples

Plan against TFE, marking two accounts as changed:
  sgctl workspace plan --org my-org --changed-accounts 123456789012,210987654321

Apply the plan, connecting new workspaces to VCS:
  sgctl workspace apply --org my-org \
    --changed-accounts 123456789012 \
    --vcs-repo my-org/sg-config --vcs-oauth-token-id ot-abc123

Reconcile every account without triggering runs:
  sgctl workspace sync --org my-org`,
		Commands: []*cli.Command{
			workspacePlanCmd(),
			workspaceApplyCmd(),
			workspaceSyncCmd(),
		},
	}
}

func workspacePlanCmd() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Show the workspace actions a sync would take",
		ArgsUsage: " ",
		Description: `Compute the provisioning plan: which workspaces would be created, updated
for configuration drift, or have runs triggered for changed accounts.

Exits with code 2 when the plan contains changes, mirroring terraform plan
-detailed-exitcode so pipelines can gate on it.`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown, json",
				Value:   "text",
			},
		}, workspaceFlags...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := newProvisioner(cmd)
			if err != nil {
				return err
			}

			actions, err := p.Plan(ctx, splitAccounts(cmd.String("changed-accounts")))
			if err != nil {
				return fmt.Errorf("failed to plan workspaces: %w", err)
			}

			switch cmd.String("format") {
			case "markdown":
				fmt.Fprint(os.Stdout, workspace.FormatPlanMarkdown(actions))
			case "json":
				w := serializer.NewWriter(serializer.FormatJSON, os.Stdout)
				if err := w.Serialize(ctx, actions); err != nil {
					return fmt.Errorf("failed to encode plan: %w", err)
				}
			case "text":
				fmt.Fprint(os.Stdout, workspace.FormatPlanText(actions))
			default:
				return fmt.Errorf("unknown output format: %q (supported: text, markdown, json)", cmd.String("format"))
			}

			if workspace.HasChanges(actions) {
				return cli.Exit("", 2)
			}
			return nil
		},
	}
}

func workspaceApplyCmd() *cli.Command {
	return &cli.Command{
		Name:      "apply",
		Usage:     "Execute the workspace provisioning plan",
		ArgsUsage: " ",
		Description: `Plan and then execute: create missing workspaces (setting the yaml_file
variable and triggering an initial run), update drifted ones, and trigger
runs for changed accounts. Requires TFE credentials.`,
		Flags: workspaceFlags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := newProvisioner(cmd)
			if err != nil {
				return err
			}

			changed := splitAccounts(cmd.String("changed-accounts"))
			actions, err := p.Plan(ctx, changed)
			if err != nil {
				return fmt.Errorf("failed to plan workspaces: %w", err)
			}

			slog.Info("applying workspace plan",
				"actions", len(actions),
				"changedAccounts", len(changed))

			results, err := p.Apply(ctx, actions)
			if err != nil {
				return fmt.Errorf("failed to apply workspace plan: %w", err)
			}

			fmt.Fprint(os.Stdout, workspace.FormatApplyText(results))

			if workspace.HasApplyErrors(results) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func workspaceSyncCmd() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Reconcile every account workspace without triggering runs",
		ArgsUsage: " ",
		Description: `Plan and apply across all discovered accounts with no accounts marked as
changed. Creates missing workspaces and fixes drift, but does not queue
runs for existing up-to-date workspaces.`,
		Flags: workspaceFlags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := newProvisioner(cmd)
			if err != nil {
				return err
			}

			actions, err := p.Plan(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to plan workspaces: %w", err)
			}

			results, err := p.Apply(ctx, actions)
			if err != nil {
				return fmt.Errorf("failed to sync workspaces: %w", err)
			}

			fmt.Fprint(os.Stdout, workspace.FormatApplyText(results))

			if workspace.HasApplyErrors(results) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// minTerraformVersion is the oldest release the baseline security-group
// module supports.
var minTerraformVersion = verspkg.MustParse("1.0")

func newProvisioner(cmd *cli.Command) (*workspace.Provisioner, error) {
	tfVersion := cmd.String("terraform-version")
	pin, err := verspkg.Parse(tfVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid --terraform-version %q: %w", tfVersion, err)
	}
	if !pin.EqualsOrNewer(minTerraformVersion) {
		return nil, fmt.Errorf("--terraform-version %s is below the minimum supported %s", pin, minTerraformVersion)
	}

	opts := []workspace.ProvisionerOption{
		workspace.WithTerraformVersion(tfVersion),
		workspace.WithAutoApply(cmd.Bool("auto-apply")),
	}

	token := cmd.String("token")
	org := cmd.String("org")
	switch {
	case token != "" && org != "":
		client := workspace.NewClient(token, org,
			workspace.WithAddress(cmd.String("address")))
		opts = append(opts, workspace.WithClient(client))
	case token != "" || org != "":
		return nil, fmt.Errorf("both --org and --token are required to connect to TFE")
	default:
		slog.Warn("no TFE credentials provided, planning in dry-run mode")
	}

	if repo := cmd.String("vcs-repo"); repo != "" {
		opts = append(opts, workspace.WithVCS(repo, cmd.String("vcs-oauth-token-id")))
	}
	if projectID := cmd.String("project-id"); projectID != "" {
		opts = append(opts, workspace.WithProjectID(projectID))
	}

	return workspace.NewProvisioner(cmd.String("repo-root"), opts...), nil
}

func splitAccounts(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
