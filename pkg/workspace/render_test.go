package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func samplePlan() []Action {
	cfg := NewConfig("111111111111")
	return []Action{
		{Action: ActionCreate, Workspace: "sg-111111111111", AccountID: "111111111111",
			Reason: "New account — workspace does not exist", Details: map[string]any{"config": cfg}},
		{Action: ActionUpdate, Workspace: "sg-222222222222", AccountID: "222222222222",
			Reason: "Workspace config drift: terraform-version",
			Details: map[string]any{"workspace_id": "ws-222222222222", "drift": []string{"terraform-version"}}},
		{Action: ActionTriggerRun, Workspace: "sg-111111111111", AccountID: "111111111111",
			Reason: "New workspace — initial run"},
		{Action: ActionSkip, Workspace: "sg-333333333333", AccountID: "333333333333",
			Reason: "Account directory accounts/333333333333/security-groups.yaml not found"},
	}
}

func TestFormatPlanTextEmpty(t *testing.T) {
	out := FormatPlanText(nil)
	assert.Contains(t, out, "No actions needed")
}

func TestFormatPlanText(t *testing.T) {
	out := FormatPlanText(samplePlan())

	assert.Contains(t, out, "🆕 Workspaces to create: 1")
	assert.Contains(t, out, "+ sg-111111111111 (account 111111111111)")
	assert.Contains(t, out, "🔄 Workspaces to update: 1")
	assert.Contains(t, out, "Drift: terraform-version")
	assert.Contains(t, out, "🚀 Runs to trigger: 1")
	assert.Contains(t, out, "⏭️  Skipped: 1")
	assert.Contains(t, out, "Total: 1 create, 1 update, 1 trigger, 1 skip")
}

func TestFormatPlanMarkdown(t *testing.T) {
	out := FormatPlanMarkdown(samplePlan())

	assert.Contains(t, out, "## 📋 TFE Workspace Provisioning Plan")
	assert.Contains(t, out, "**1** to create | **1** to update | **1** runs to trigger | **1** skipped")
	assert.Contains(t, out, "<summary>🆕 Create 1 workspace(s)</summary>")
	assert.Contains(t, out, "- Working directory: `accounts/111111111111`")
	assert.Contains(t, out, "- Drifted fields: `terraform-version`")
}

func TestFormatPlanMarkdownInSync(t *testing.T) {
	out := FormatPlanMarkdown(nil)
	assert.Contains(t, out, "All workspaces in sync")
}

func TestFormatApplyText(t *testing.T) {
	out := FormatApplyText([]ApplyResult{
		{Workspace: "sg-111111111111", Status: "created"},
		{Workspace: "sg-222222222222", Status: "error", Error: "quota exceeded"},
	})

	assert.Contains(t, out, "✅ sg-111111111111: created")
	assert.Contains(t, out, "❌ sg-222222222222: error")
	assert.Contains(t, out, "Error: quota exceeded")
}

func TestHasApplyErrors(t *testing.T) {
	assert.False(t, HasApplyErrors(nil))
	assert.False(t, HasApplyErrors([]ApplyResult{{Status: "created"}}))
	assert.True(t, HasApplyErrors([]ApplyResult{{Status: "created"}, {Status: "error"}}))
}

func TestConfigPayload(t *testing.T) {
	cfg := NewConfig("111111111111")
	cfg.VCSRepo = "org/sg-config"
	cfg.VCSOAuthTokenID = "ot-abc123"
	cfg.ProjectID = "prj-xyz"

	body := cfg.payload()
	data := body["data"].(map[string]any)
	attrs := data["attributes"].(map[string]any)

	assert.Equal(t, "workspaces", data["type"])
	assert.Equal(t, "sg-111111111111", attrs["name"])
	assert.Equal(t, true, attrs["file-triggers-enabled"])

	vcs := attrs["vcs-repo"].(map[string]any)
	assert.Equal(t, "org/sg-config", vcs["identifier"])
	assert.Equal(t, "main", vcs["branch"])

	rel := data["relationships"].(map[string]any)
	project := rel["project"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "prj-xyz", project["id"])
}

func TestConfigPayloadOmitsVCSWithoutToken(t *testing.T) {
	cfg := NewConfig("111111111111")
	cfg.VCSRepo = "org/sg-config"

	attrs := cfg.payload()["data"].(map[string]any)["attributes"].(map[string]any)
	_, hasVCS := attrs["vcs-repo"]
	assert.False(t, hasVCS)
}
