package discover

// Matrix is the GitHub Actions job matrix shape.
type Matrix struct {
	Include []MatrixEntry `json:"include"`
}

// MatrixEntry is the per-job subset of account metadata a matrix build needs.
type MatrixEntry struct {
	AccountID         string `json:"account_id"`
	Directory         string `json:"directory"`
	Name              string `json:"name"`
	Environment       string `json:"environment"`
	HasSecurityGroups bool   `json:"has_security_groups"`
	Priority          int    `json:"priority"`
}

// BuildMatrix projects accounts into a job matrix. The Include slice is
// never nil so an empty matrix serializes as {"include":[]}.
func BuildMatrix(accounts []Account) Matrix {
	entries := make([]MatrixEntry, 0, len(accounts))
	for _, a := range accounts {
		entries = append(entries, MatrixEntry{
			AccountID:         a.AccountID,
			Directory:         a.Directory,
			Name:              a.Name,
			Environment:       a.Environment,
			HasSecurityGroups: a.HasSecurityGroups,
			Priority:          a.DeploymentPriority,
		})
	}
	return Matrix{Include: entries}
}
