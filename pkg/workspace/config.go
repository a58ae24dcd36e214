package workspace

import "fmt"

const (
	// WorkspacePrefix is prepended to the account id to form the
	// workspace name.
	WorkspacePrefix = "sg-"

	// DefaultTerraformVersion pins workspaces that do not override it.
	DefaultTerraformVersion = "1.6.0"
)

// ManagedTags mark workspaces owned by this platform's pipeline.
var ManagedTags = []string{"sg-platform", "managed-by:sg-pipeline"}

// Config is the desired state of one account's workspace.
type Config struct {
	Name             string   `json:"name"`
	AccountID        string   `json:"account_id"`
	WorkingDirectory string   `json:"working_directory"`
	TerraformVersion string   `json:"terraform_version"`
	AutoApply        bool     `json:"auto_apply"`
	VCSRepo          string   `json:"vcs_repo,omitempty"`
	VCSBranch        string   `json:"vcs_branch,omitempty"`
	VCSOAuthTokenID  string   `json:"vcs_oauth_token_id,omitempty"`
	ProjectID        string   `json:"project_id,omitempty"`
	Tags             []string `json:"tags"`
	TriggerPatterns  []string `json:"trigger_patterns"`
}

// NewConfig builds the standard workspace configuration for an account:
// name sg-<id>, working directory accounts/<id>, runs triggered by the
// account's files plus the shared policy documents.
func NewConfig(accountID string) Config {
	return Config{
		Name:             WorkspacePrefix + accountID,
		AccountID:        accountID,
		WorkingDirectory: fmt.Sprintf("accounts/%s", accountID),
		TerraformVersion: DefaultTerraformVersion,
		Tags:             append([]string(nil), ManagedTags...),
		TriggerPatterns: []string{
			fmt.Sprintf("accounts/%s/**/*", accountID),
			"modules/**/*",
			"prefix-lists.yaml",
			"guardrails.yaml",
		},
	}
}

// payload builds the JSON:API body for workspace create and update calls.
func (c Config) payload() map[string]any {
	attributes := map[string]any{
		"name":                  c.Name,
		"working-directory":     c.WorkingDirectory,
		"terraform-version":     c.TerraformVersion,
		"auto-apply":            c.AutoApply,
		"file-triggers-enabled": true,
		"trigger-patterns":      c.TriggerPatterns,
		"queue-all-runs":        false,
		"speculative-enabled":   true,
		"tag-names":             c.Tags,
	}

	if c.VCSRepo != "" && c.VCSOAuthTokenID != "" {
		branch := c.VCSBranch
		if branch == "" {
			branch = "main"
		}
		attributes["vcs-repo"] = map[string]any{
			"identifier":     c.VCSRepo,
			"branch":         branch,
			"oauth-token-id": c.VCSOAuthTokenID,
		}
	}

	data := map[string]any{
		"type":       "workspaces",
		"attributes": attributes,
	}

	if c.ProjectID != "" {
		data["relationships"] = map[string]any{
			"project": map[string]any{
				"data": map[string]any{
					"type": "projects",
					"id":   c.ProjectID,
				},
			},
		}
	}

	return map[string]any{"data": data}
}
