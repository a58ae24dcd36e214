package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sg-platform/sgctl/pkg/quota"
)

func quotasCmd() *cli.Command {
	return &cli.Command{
		Name:                  "quotas",
		EnableShellCompletion: true,
		Usage:                 "Check AWS quota headroom for proposed security groups",
		ArgsUsage:             "<account-id>",
		Description: `Compare the proposed security group configuration for an account against
the AWS service quotas in the target account.

Checked quotas:
  - security groups per VPC
  - inbound and outbound rules per security group
  - security groups per account

Current usage comes from the EC2 API, limits from Service Quotas (falling
back to guardrails defaults when a quota code is unavailable). Checks at or
above 80% utilization report a warning; exceeding the limit is an error.

# Exit Codes

  0  all quota checks passed
  1  at least one quota would be exceeded
  2  at least one quota is above the warning threshold

# Examples

Check quotas for an account across all available VPCs:
  sgctl quotas 123456789012 --region us-west-2

Check a single VPC with machine-readable output:
  sgctl quotas 123456789012 --vpc-id vpc-0abc123 --format json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "region",
				Usage:   "AWS region to check",
				Sources: cli.EnvVars("AWS_DEFAULT_REGION"),
			},
			&cli.StringFlag{
				Name:  "vpc-id",
				Usage: "Restrict the check to one VPC",
			},
			&cli.StringFlag{
				Name:  "account-dir",
				Usage: "Account directory holding the proposed configuration (default: accounts/<account-id>)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Include passed checks in the output",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format := cmd.String("format")
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown output format: %q (supported: text, json)", format)
			}

			accountID := cmd.Args().First()
			if accountID == "" {
				return fmt.Errorf("account id argument is required")
			}

			checker, err := quota.New(ctx, accountID,
				quota.WithRegion(cmd.String("region")),
				quota.WithVPCID(cmd.String("vpc-id")),
				quota.WithAccountDir(cmd.String("account-dir")),
			)
			if err != nil {
				return fmt.Errorf("failed to initialize quota checker: %w", err)
			}

			slog.Info("checking quotas",
				"accountID", accountID,
				"region", checker.Region())

			results, err := checker.Check(ctx)
			if err != nil {
				return fmt.Errorf("quota check failed: %w", err)
			}

			rep := quota.Report{
				AccountID: accountID,
				Region:    checker.Region(),
				VPCID:     checker.VPCID(),
				Results:   results,
				Verbose:   cmd.Bool("verbose"),
			}

			if format == "json" {
				err = rep.RenderJSON(os.Stdout)
			} else {
				err = rep.RenderText(os.Stdout)
			}
			if err != nil {
				return fmt.Errorf("failed to render report: %w", err)
			}

			if code := quota.ExitCode(results); code != 0 {
				return cli.Exit("", code)
			}
			return nil
		},
	}
}
