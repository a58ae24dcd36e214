package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/sg-platform/sgctl/pkg/logging"
)

const (
	name           = "sgctl"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Run executes the root command. It installs SIGINT/SIGTERM handling so
// long-running AWS and Terraform Enterprise calls cancel cleanly.
func Run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd().Run(ctx, args)
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Usage:   "AWS security group platform tooling",
		Description: `sgctl manages security group configuration as code.

Account directories under accounts/<account-id> hold a security-groups.yaml
document describing the groups and rules for one AWS account. sgctl validates
those documents against the platform guardrails, verifies AWS quota headroom
before deployment, provisions the Terraform Enterprise workspaces that apply
them, and builds CI job matrices from the account inventory.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
		Commands: []*cli.Command{
			validateCmd(),
			quotasCmd(),
			workspaceCmd(),
			discoverCmd(),
		},
	}
}
