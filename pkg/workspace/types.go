package workspace

// Workspace is a TFE workspace resource.
type Workspace struct {
	ID         string              `json:"id"`
	Attributes WorkspaceAttributes `json:"attributes"`
}

// WorkspaceAttributes carries the workspace fields this platform manages.
type WorkspaceAttributes struct {
	Name                string   `json:"name"`
	WorkingDirectory    string   `json:"working-directory"`
	TerraformVersion    string   `json:"terraform-version"`
	AutoApply           bool     `json:"auto-apply"`
	FileTriggersEnabled bool     `json:"file-triggers-enabled"`
	TriggerPatterns     []string `json:"trigger-patterns"`
	QueueAllRuns        bool     `json:"queue-all-runs"`
	SpeculativeEnabled  bool     `json:"speculative-enabled"`
	TagNames            []string `json:"tag-names"`
}

// Run is a TFE run resource.
type Run struct {
	ID         string        `json:"id"`
	Attributes RunAttributes `json:"attributes"`
}

// RunAttributes carries the run fields this platform reads.
type RunAttributes struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Variable is a workspace variable.
type Variable struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Category  string `json:"category"`
	Sensitive bool   `json:"sensitive"`
	HCL       bool   `json:"hcl"`
}

type workspaceDocument struct {
	Data Workspace `json:"data"`
}

type workspaceListDocument struct {
	Data []Workspace `json:"data"`
	Meta struct {
		Pagination struct {
			TotalPages int `json:"total-pages"`
		} `json:"pagination"`
	} `json:"meta"`
}

type runDocument struct {
	Data Run `json:"data"`
}

type variableListDocument struct {
	Data []struct {
		ID         string   `json:"id"`
		Attributes Variable `json:"attributes"`
	} `json:"data"`
}
