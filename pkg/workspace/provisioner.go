package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sg-platform/sgctl/pkg/policy"
)

// Action kinds in a provisioning plan.
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionTriggerRun = "trigger_run"
	ActionSkip       = "skip"
)

// Action is one planned provisioning step.
type Action struct {
	Action    string         `json:"action"`
	Workspace string         `json:"workspace"`
	AccountID string         `json:"account_id"`
	Reason    string         `json:"reason"`
	Details   map[string]any `json:"details,omitempty"`
}

// ApplyResult records the outcome of executing one action.
type ApplyResult struct {
	Action      string `json:"action"`
	Workspace   string `json:"workspace"`
	AccountID   string `json:"account_id"`
	Status      string `json:"status"`
	WorkspaceID string `json:"workspace_id,omitempty"`
	RunID       string `json:"run_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Provisioner reconciles account directories with TFE workspaces. A nil
// client plans in offline dry-run mode and cannot apply.
type Provisioner struct {
	repoRoot         string
	client           API
	vcsRepo          string
	vcsOAuthTokenID  string
	projectID        string
	terraformVersion string
	autoApply        bool
}

// ProvisionerOption represents a provisioner option.
type ProvisionerOption func(*Provisioner)

// WithClient attaches a TFE client. Without one, plans are offline.
func WithClient(client API) ProvisionerOption {
	return func(p *Provisioner) {
		p.client = client
	}
}

// WithVCS configures VCS-driven runs for created workspaces.
func WithVCS(repo, oauthTokenID string) ProvisionerOption {
	return func(p *Provisioner) {
		p.vcsRepo = repo
		p.vcsOAuthTokenID = oauthTokenID
	}
}

// WithProjectID groups created workspaces under a TFE project.
func WithProjectID(projectID string) ProvisionerOption {
	return func(p *Provisioner) {
		p.projectID = projectID
	}
}

// WithTerraformVersion overrides the pinned Terraform version.
func WithTerraformVersion(version string) ProvisionerOption {
	return func(p *Provisioner) {
		if version != "" {
			p.terraformVersion = version
		}
	}
}

// WithAutoApply lets triggered runs apply without manual approval.
func WithAutoApply(autoApply bool) ProvisionerOption {
	return func(p *Provisioner) {
		p.autoApply = autoApply
	}
}

// NewProvisioner creates a provisioner rooted at the configuration
// repository.
func NewProvisioner(repoRoot string, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		repoRoot:         repoRoot,
		terraformVersion: DefaultTerraformVersion,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DiscoverAccounts finds the 12-digit account directories under accounts/
// that carry a security-groups document, sorted by account id.
func (p *Provisioner) DiscoverAccounts() []string {
	accountsDir := filepath.Join(p.repoRoot, "accounts")
	entries, err := os.ReadDir(accountsDir)
	if err != nil {
		return nil
	}

	var accounts []string
	for _, entry := range entries {
		if !entry.IsDir() || !policy.IsAccountID(entry.Name()) {
			continue
		}
		sgFile := filepath.Join(accountsDir, entry.Name(), policy.SecurityGroupsFileName)
		if _, err := os.Stat(sgFile); err == nil {
			accounts = append(accounts, entry.Name())
		}
	}
	sort.Strings(accounts)
	return accounts
}

// BuildConfig returns the desired workspace configuration for an account.
func (p *Provisioner) BuildConfig(accountID string) Config {
	cfg := NewConfig(accountID)
	cfg.TerraformVersion = p.terraformVersion
	cfg.AutoApply = p.autoApply
	cfg.VCSRepo = p.vcsRepo
	cfg.VCSOAuthTokenID = p.vcsOAuthTokenID
	cfg.ProjectID = p.projectID
	return cfg
}

// Plan computes the actions needed to reconcile workspaces with the
// repository. When changedAccounts is non-empty, only those accounts are
// planned and runs are queued for them; otherwise every discovered account
// is reconciled without triggering runs.
func (p *Provisioner) Plan(ctx context.Context, changedAccounts []string) ([]Action, error) {
	allAccounts := p.DiscoverAccounts()

	targets := changedAccounts
	if len(targets) == 0 {
		targets = allAccounts
	}

	changed := map[string]bool{}
	for _, id := range changedAccounts {
		changed[id] = true
	}

	known := map[string]bool{}
	for _, id := range allAccounts {
		known[id] = true
	}

	var actions []Action
	for _, accountID := range targets {
		workspaceName := WorkspacePrefix + accountID

		if !known[accountID] {
			actions = append(actions, Action{
				Action:    ActionSkip,
				Workspace: workspaceName,
				AccountID: accountID,
				Reason:    fmt.Sprintf("Account directory accounts/%s/security-groups.yaml not found", accountID),
			})
			continue
		}

		cfg := p.BuildConfig(accountID)

		if p.client == nil {
			actions = append(actions, Action{
				Action:    ActionCreate,
				Workspace: cfg.Name,
				AccountID: accountID,
				Reason:    "Workspace needed (dry-run — no TFE connection)",
				Details:   map[string]any{"config": cfg},
			})
			if changed[accountID] {
				actions = append(actions, Action{
					Action:    ActionTriggerRun,
					Workspace: cfg.Name,
					AccountID: accountID,
					Reason:    "Changed account (dry-run — no TFE connection)",
				})
			}
			continue
		}

		existing, err := p.client.GetWorkspace(ctx, cfg.Name)
		if err != nil {
			return nil, err
		}

		if existing == nil {
			actions = append(actions, Action{
				Action:    ActionCreate,
				Workspace: cfg.Name,
				AccountID: accountID,
				Reason:    "New account — workspace does not exist",
				Details:   map[string]any{"config": cfg},
			})
			if changed[accountID] {
				actions = append(actions, Action{
					Action:    ActionTriggerRun,
					Workspace: cfg.Name,
					AccountID: accountID,
					Reason:    "New workspace — initial run",
				})
			}
			continue
		}

		if drift := detectDrift(existing, cfg); len(drift) > 0 {
			actions = append(actions, Action{
				Action:    ActionUpdate,
				Workspace: cfg.Name,
				AccountID: accountID,
				Reason:    fmt.Sprintf("Workspace config drift: %s", strings.Join(drift, ", ")),
				Details:   map[string]any{"workspace_id": existing.ID, "drift": drift},
			})
		}

		if changed[accountID] {
			actions = append(actions, Action{
				Action:    ActionTriggerRun,
				Workspace: cfg.Name,
				AccountID: accountID,
				Reason:    "Account YAML changed in this PR",
				Details:   map[string]any{"workspace_id": existing.ID},
			})
		}
	}

	return actions, nil
}

// Apply executes planned actions in order. Failures are captured per
// action so one broken workspace does not abort the rest of the batch.
func (p *Provisioner) Apply(ctx context.Context, actions []Action) ([]ApplyResult, error) {
	if p.client == nil {
		return nil, fmt.Errorf("cannot apply without a TFE client")
	}

	workspaceIDs := map[string]string{}
	results := make([]ApplyResult, 0, len(actions))

	for _, action := range actions {
		result := ApplyResult{
			Action:    action.Action,
			Workspace: action.Workspace,
			AccountID: action.AccountID,
			Status:    "pending",
		}

		switch action.Action {
		case ActionCreate:
			cfg := p.BuildConfig(action.AccountID)
			ws, err := p.client.CreateWorkspace(ctx, cfg)
			if err != nil {
				result.Status = "error"
				result.Error = err.Error()
				break
			}
			workspaceIDs[action.Workspace] = ws.ID
			result.WorkspaceID = ws.ID

			err = p.client.SetVariable(ctx, ws.ID, Variable{
				Key:      "yaml_file",
				Value:    fmt.Sprintf("accounts/%s/security-groups.yaml", action.AccountID),
				Category: "terraform",
			})
			if err != nil {
				result.Status = "error"
				result.Error = err.Error()
				break
			}
			result.Status = "created"

		case ActionUpdate:
			workspaceID, _ := action.Details["workspace_id"].(string)
			cfg := p.BuildConfig(action.AccountID)
			if _, err := p.client.UpdateWorkspace(ctx, workspaceID, cfg); err != nil {
				result.Status = "error"
				result.Error = err.Error()
				break
			}
			workspaceIDs[action.Workspace] = workspaceID
			result.WorkspaceID = workspaceID
			result.Status = "updated"

		case ActionTriggerRun:
			workspaceID, _ := action.Details["workspace_id"].(string)
			if workspaceID == "" {
				workspaceID = workspaceIDs[action.Workspace]
			}
			if workspaceID == "" {
				result.Status = "error"
				result.Error = "No workspace ID available for run trigger"
				break
			}
			run, err := p.client.CreateRun(ctx, workspaceID,
				fmt.Sprintf("Triggered by SG platform pipeline for account %s", action.AccountID),
				p.autoApply)
			if err != nil {
				result.Status = "error"
				result.Error = err.Error()
				break
			}
			result.RunID = run.ID
			result.Status = "triggered"
			slog.Info("triggered run", "run_id", run.ID, "workspace", action.Workspace)

		case ActionSkip:
			result.Status = "skipped"
		}

		if result.Error != "" {
			slog.Error("workspace action failed",
				"action", action.Action, "workspace", action.Workspace, "error", result.Error)
		}

		results = append(results, result)
	}

	return results, nil
}

// detectDrift compares an existing workspace against the desired config
// and names the fields that differ.
func detectDrift(existing *Workspace, desired Config) []string {
	var drift []string
	attrs := existing.Attributes

	if attrs.WorkingDirectory != desired.WorkingDirectory {
		drift = append(drift, "working-directory")
	}
	if attrs.TerraformVersion != desired.TerraformVersion {
		drift = append(drift, "terraform-version")
	}
	if attrs.AutoApply != desired.AutoApply {
		drift = append(drift, "auto-apply")
	}
	if !sameStringSet(attrs.TriggerPatterns, desired.TriggerPatterns) {
		drift = append(drift, "trigger-patterns")
	}

	return drift
}

// sameStringSet compares two slices ignoring order and duplicates.
func sameStringSet(a, b []string) bool {
	setA := map[string]bool{}
	for _, s := range a {
		setA[s] = true
	}
	setB := map[string]bool{}
	for _, s := range b {
		setB[s] = true
	}
	if len(setA) != len(setB) {
		return false
	}
	for s := range setA {
		if !setB[s] {
			return false
		}
	}
	return true
}

// HasChanges reports whether the plan contains anything beyond skips.
func HasChanges(actions []Action) bool {
	for _, a := range actions {
		if a.Action != ActionSkip {
			return true
		}
	}
	return false
}
