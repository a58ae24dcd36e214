package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sg-platform/sgctl/pkg/policy"
)

type fakeAPI struct {
	workspaces map[string]*Workspace
	createErr  error
	runErr     error
	varErr     error

	created []Config
	updated []string
	runs    []string
	vars    []Variable
}

func (f *fakeAPI) GetWorkspace(_ context.Context, name string) (*Workspace, error) {
	return f.workspaces[name], nil
}

func (f *fakeAPI) CreateWorkspace(_ context.Context, cfg Config) (*Workspace, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, cfg)
	return &Workspace{ID: "ws-" + cfg.AccountID}, nil
}

func (f *fakeAPI) UpdateWorkspace(_ context.Context, workspaceID string, _ Config) (*Workspace, error) {
	f.updated = append(f.updated, workspaceID)
	return &Workspace{ID: workspaceID}, nil
}

func (f *fakeAPI) CreateRun(_ context.Context, workspaceID, _ string, _ bool) (*Run, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	f.runs = append(f.runs, workspaceID)
	return &Run{ID: "run-" + workspaceID}, nil
}

func (f *fakeAPI) SetVariable(_ context.Context, _ string, v Variable) error {
	if f.varErr != nil {
		return f.varErr
	}
	f.vars = append(f.vars, v)
	return nil
}

func (f *fakeAPI) ListVariables(_ context.Context, _ string) ([]Variable, error) {
	return f.vars, nil
}

// syncedWorkspace returns an existing workspace whose attributes match the
// desired configuration for accountID.
func syncedWorkspace(accountID string) *Workspace {
	cfg := NewConfig(accountID)
	return &Workspace{
		ID: "ws-" + accountID,
		Attributes: WorkspaceAttributes{
			Name:             cfg.Name,
			WorkingDirectory: cfg.WorkingDirectory,
			TerraformVersion: cfg.TerraformVersion,
			AutoApply:        cfg.AutoApply,
			TriggerPatterns:  cfg.TriggerPatterns,
		},
	}
}

func repoWithAccounts(t *testing.T, accountIDs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, id := range accountIDs {
		dir := filepath.Join(root, "accounts", id)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, policy.SecurityGroupsFileName), []byte("{}"), 0o644))
	}
	return root
}

func TestDiscoverAccounts(t *testing.T) {
	root := repoWithAccounts(t, "222222222222", "111111111111")

	// Directories without a security-groups document, or with names that
	// are not account ids, are ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "accounts", "333333333333"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "accounts", "_template"), 0o755))

	p := NewProvisioner(root)
	assert.Equal(t, []string{"111111111111", "222222222222"}, p.DiscoverAccounts())
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("123456789012")

	assert.Equal(t, "sg-123456789012", cfg.Name)
	assert.Equal(t, "accounts/123456789012", cfg.WorkingDirectory)
	assert.Equal(t, DefaultTerraformVersion, cfg.TerraformVersion)
	assert.False(t, cfg.AutoApply)
	assert.Contains(t, cfg.TriggerPatterns, "accounts/123456789012/**/*")
	assert.Contains(t, cfg.TriggerPatterns, "guardrails.yaml")
	assert.Equal(t, ManagedTags, cfg.Tags)
}

func TestPlanOfflineDryRun(t *testing.T) {
	root := repoWithAccounts(t, "111111111111", "222222222222")
	p := NewProvisioner(root)

	actions, err := p.Plan(context.Background(), []string{"222222222222"})
	require.NoError(t, err)

	require.Len(t, actions, 2)
	assert.Equal(t, ActionCreate, actions[0].Action)
	assert.Equal(t, "sg-222222222222", actions[0].Workspace)
	assert.Equal(t, ActionTriggerRun, actions[1].Action)
	assert.True(t, HasChanges(actions))
}

func TestPlanAllAccountsWhenNoneChanged(t *testing.T) {
	root := repoWithAccounts(t, "111111111111", "222222222222")
	p := NewProvisioner(root)

	actions, err := p.Plan(context.Background(), nil)
	require.NoError(t, err)

	// Full reconcile plans every account but triggers no runs.
	require.Len(t, actions, 2)
	for _, a := range actions {
		assert.Equal(t, ActionCreate, a.Action)
	}
}

func TestPlanSkipsUnknownChangedAccount(t *testing.T) {
	root := repoWithAccounts(t, "111111111111")
	p := NewProvisioner(root, WithClient(&fakeAPI{}))

	actions, err := p.Plan(context.Background(), []string{"999999999999"})
	require.NoError(t, err)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionSkip, actions[0].Action)
	assert.Contains(t, actions[0].Reason, "accounts/999999999999/security-groups.yaml not found")
	assert.False(t, HasChanges(actions))
}

func TestPlanInSyncWorkspace(t *testing.T) {
	root := repoWithAccounts(t, "111111111111")
	api := &fakeAPI{workspaces: map[string]*Workspace{
		"sg-111111111111": syncedWorkspace("111111111111"),
	}}
	p := NewProvisioner(root, WithClient(api))

	actions, err := p.Plan(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestPlanDriftedWorkspace(t *testing.T) {
	root := repoWithAccounts(t, "111111111111")
	ws := syncedWorkspace("111111111111")
	ws.Attributes.TerraformVersion = "1.4.0"
	ws.Attributes.AutoApply = true
	api := &fakeAPI{workspaces: map[string]*Workspace{"sg-111111111111": ws}}
	p := NewProvisioner(root, WithClient(api))

	actions, err := p.Plan(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionUpdate, actions[0].Action)
	assert.Equal(t, []string{"terraform-version", "auto-apply"}, actions[0].Details["drift"])
	assert.Equal(t, "ws-111111111111", actions[0].Details["workspace_id"])
}

func TestPlanChangedAccountTriggersRun(t *testing.T) {
	root := repoWithAccounts(t, "111111111111")
	api := &fakeAPI{workspaces: map[string]*Workspace{
		"sg-111111111111": syncedWorkspace("111111111111"),
	}}
	p := NewProvisioner(root, WithClient(api))

	actions, err := p.Plan(context.Background(), []string{"111111111111"})
	require.NoError(t, err)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionTriggerRun, actions[0].Action)
	assert.Equal(t, "ws-111111111111", actions[0].Details["workspace_id"])
}

func TestApplyRequiresClient(t *testing.T) {
	p := NewProvisioner(t.TempDir())
	_, err := p.Apply(context.Background(), []Action{{Action: ActionCreate}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a TFE client")
}

func TestApplyCreateThenTrigger(t *testing.T) {
	root := repoWithAccounts(t, "111111111111")
	api := &fakeAPI{}
	p := NewProvisioner(root, WithClient(api))

	actions := []Action{
		{Action: ActionCreate, Workspace: "sg-111111111111", AccountID: "111111111111"},
		{Action: ActionTriggerRun, Workspace: "sg-111111111111", AccountID: "111111111111"},
	}
	results, err := p.Apply(context.Background(), actions)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "created", results[0].Status)
	assert.Equal(t, "ws-111111111111", results[0].WorkspaceID)
	// The run trigger reuses the workspace id recorded by the create.
	assert.Equal(t, "triggered", results[1].Status)
	assert.Equal(t, "run-ws-111111111111", results[1].RunID)

	require.Len(t, api.vars, 1)
	assert.Equal(t, "yaml_file", api.vars[0].Key)
	assert.Equal(t, "accounts/111111111111/security-groups.yaml", api.vars[0].Value)
	assert.Equal(t, "terraform", api.vars[0].Category)
}

func TestApplyContinuesPastFailures(t *testing.T) {
	root := repoWithAccounts(t, "111111111111", "222222222222")
	api := &fakeAPI{createErr: errors.New("quota exceeded")}
	p := NewProvisioner(root, WithClient(api))

	actions := []Action{
		{Action: ActionCreate, Workspace: "sg-111111111111", AccountID: "111111111111"},
		{Action: ActionUpdate, Workspace: "sg-222222222222", AccountID: "222222222222",
			Details: map[string]any{"workspace_id": "ws-222222222222"}},
	}
	results, err := p.Apply(context.Background(), actions)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "error", results[0].Status)
	assert.Contains(t, results[0].Error, "quota exceeded")
	assert.Equal(t, "updated", results[1].Status)
	assert.True(t, HasApplyErrors(results))
}

func TestApplyTriggerWithoutWorkspaceID(t *testing.T) {
	p := NewProvisioner(t.TempDir(), WithClient(&fakeAPI{}))

	results, err := p.Apply(context.Background(), []Action{
		{Action: ActionTriggerRun, Workspace: "sg-111111111111", AccountID: "111111111111"},
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "error", results[0].Status)
	assert.Contains(t, results[0].Error, "No workspace ID available")
}

func TestDetectDrift(t *testing.T) {
	desired := NewConfig("111111111111")
	ws := syncedWorkspace("111111111111")

	assert.Empty(t, detectDrift(ws, desired))

	ws.Attributes.WorkingDirectory = "legacy/111111111111"
	ws.Attributes.TriggerPatterns = []string{"accounts/**/*"}
	drift := detectDrift(ws, desired)
	assert.Equal(t, []string{"working-directory", "trigger-patterns"}, drift)
}

func TestSameStringSet(t *testing.T) {
	assert.True(t, sameStringSet(nil, nil))
	assert.True(t, sameStringSet([]string{"a", "b"}, []string{"b", "a"}))
	assert.True(t, sameStringSet([]string{"a", "a", "b"}, []string{"b", "a"}))
	assert.False(t, sameStringSet([]string{"a"}, []string{"a", "b"}))
	assert.False(t, sameStringSet([]string{"a"}, []string{"b"}))
}
