package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sg-platform/sgctl/pkg/report"
	"github.com/sg-platform/sgctl/pkg/validator"
)

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:                  "validate",
		EnableShellCompletion: true,
		Usage:                 "Validate security group definitions for an account",
		ArgsUsage:             "<account-dir>",
		Description: `Validate the security-groups.yaml document in an account directory against
the platform guardrails.

The validator checks document structure, account identity, baseline profile
selection, every ingress and egress rule (protocols, port ranges, CIDR
blocks, blocked ports, duplicates), group-type policy overrides, naming
conventions, prefix-list references, and character encoding.

# Exit Codes

  0  all checks passed
  1  one or more errors found
  2  warnings found, no errors

# Examples

Validate one account with console output:
  sgctl validate accounts/123456789012

Produce a PR comment body:
  sgctl validate accounts/123456789012 --format markdown

Fail CI on warnings too:
  sgctl validate accounts/123456789012 --warnings-as-errors`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   fmt.Sprintf("Output format: %s", report.SupportedFormats()),
				Value:   report.FormatText.String(),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Include info-level findings in the report",
			},
			&cli.BoolFlag{
				Name:  "warnings-as-errors",
				Usage: "Treat warnings as errors for exit-code purposes",
			},
			&cli.BoolFlag{
				Name:  "no-warnings",
				Usage: "Suppress warnings entirely",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			outFormat := report.Format(cmd.String("format"))
			if outFormat.IsUnknown() {
				return fmt.Errorf("unknown output format: %q (supported: %s)", outFormat, report.SupportedFormats())
			}

			accountDir := cmd.Args().First()
			if accountDir == "" {
				return fmt.Errorf("account directory argument is required")
			}

			v, err := validator.New(accountDir)
			if err != nil {
				return fmt.Errorf("failed to initialize validator: %w", err)
			}

			slog.Info("validating account",
				"accountID", v.AccountID(),
				"dir", v.AccountDir())

			summary := v.Validate()

			opts := report.Options{
				Verbose:          cmd.Bool("verbose"),
				WarningsAsErrors: cmd.Bool("warnings-as-errors"),
				NoWarnings:       cmd.Bool("no-warnings"),
			}
			opts.Apply(summary)

			rep := report.Report{
				AccountDir: v.AccountDir(),
				AccountID:  v.AccountID(),
				Summary:    summary,
				Options:    opts,
			}
			if err := rep.Render(os.Stdout, outFormat); err != nil {
				return fmt.Errorf("failed to render report: %w", err)
			}

			if code := summary.ExitCode(); code != 0 {
				return cli.Exit("", code)
			}
			return nil
		},
	}
}
