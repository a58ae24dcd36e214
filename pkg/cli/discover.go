package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/sg-platform/sgctl/pkg/discover"
	"github.com/sg-platform/sgctl/pkg/serializer"
)

func discoverCmd() *cli.Command {
	return &cli.Command{
		Name:                  "discover",
		EnableShellCompletion: true,
		Usage:                 "Discover account directories for CI matrix builds",
		ArgsUsage:             " ",
		Description: `Enumerate the account directories under accounts/ and emit their metadata
for pipeline consumption.

The default matrix format is a compact GitHub Actions job matrix:
  {"include":[{"account_id":...,"directory":...,...}]}

The json format is the full per-account metadata, indented for reading.
The table format flattens the same metadata into a FIELD/VALUE listing.
Both can be written to a file with --output.

# Examples

Build a deployment matrix ordered dev, staging, prod:
  sgctl discover --repo-root . --sort-by priority

Only accounts changed since main:
  sgctl discover --changed-only --base-ref main

Everything except production, full metadata:
  sgctl discover --exclude-environment prod --format json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "repo-root",
				Usage: "Repository root holding the accounts/ tree",
				Value: ".",
			},
			&cli.BoolFlag{
				Name:  "changed-only",
				Usage: "Only discover accounts with changes relative to the base ref",
			},
			&cli.StringFlag{
				Name:  "base-ref",
				Usage: "Git reference to compare against for changed files",
				Value: "main",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: matrix (GitHub Actions), json, or table",
				Value:   "matrix",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write json or table output to a file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "filter-environment",
				Usage: "Only include these environments (comma-separated)",
			},
			&cli.StringFlag{
				Name:  "exclude-environment",
				Usage: "Exclude these environments (comma-separated)",
			},
			&cli.IntFlag{
				Name:  "max-parallel",
				Usage: "Limit the number of accounts emitted",
			},
			&cli.StringFlag{
				Name:  "sort-by",
				Usage: "Sort accounts by field: account_id, environment, priority, name",
				Value: string(discover.SortByPriority),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format := cmd.String("format")
			if format != "matrix" && format != "json" && format != "table" {
				return fmt.Errorf("unknown output format: %q (supported: matrix, json, table)", format)
			}

			sortBy := discover.SortField(cmd.String("sort-by"))
			switch sortBy {
			case discover.SortByAccountID, discover.SortByEnvironment, discover.SortByPriority, discover.SortByName:
			default:
				return fmt.Errorf("unknown sort field: %q", sortBy)
			}

			repoRoot := cmd.String("repo-root")

			var accounts []discover.Account
			var err error
			if cmd.Bool("changed-only") {
				accounts, err = discover.ChangedAccounts(ctx, repoRoot, cmd.String("base-ref"))
				if err == nil && len(accounts) == 0 {
					fmt.Fprintln(os.Stderr, "No changed accounts found")
				}
			} else {
				accounts, err = discover.Accounts(repoRoot)
			}
			if err != nil {
				return fmt.Errorf("failed to discover accounts: %w", err)
			}

			accounts = discover.FilterEnvironments(accounts,
				splitAccounts(cmd.String("filter-environment")),
				splitAccounts(cmd.String("exclude-environment")))

			discover.Sort(accounts, sortBy)

			if max := int(cmd.Int("max-parallel")); max > 0 && len(accounts) > max {
				accounts = accounts[:max]
				fmt.Fprintf(os.Stderr, "Limited to %d accounts for parallel processing\n", max)
			}

			if format == "matrix" {
				// Single-line output so it can be assigned to a job
				// matrix via $GITHUB_OUTPUT.
				data, err := json.Marshal(discover.BuildMatrix(accounts))
				if err != nil {
					return fmt.Errorf("failed to encode matrix: %w", err)
				}
				fmt.Fprintln(os.Stdout, string(data))
			} else {
				if accounts == nil {
					accounts = []discover.Account{}
				}
				w := serializer.NewFileWriterOrStdout(serializer.Format(format), cmd.String("output"))
				defer w.Close()
				if err := w.Serialize(ctx, accounts); err != nil {
					return fmt.Errorf("failed to encode accounts: %w", err)
				}
			}

			fmt.Fprintf(os.Stderr, "Discovered %d accounts\n", len(accounts))
			if cmd.Bool("changed-only") && len(accounts) > 0 {
				ids := make([]string, 0, len(accounts))
				for _, a := range accounts {
					ids = append(ids, a.AccountID)
				}
				fmt.Fprintf(os.Stderr, "Changed accounts (vs %s): %s\n",
					cmd.String("base-ref"), strings.Join(ids, ", "))
			}
			return nil
		},
	}
}
