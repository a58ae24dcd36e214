package quota

// Level represents a quota check outcome.
type Level string

const (
	LevelOK      Level = "ok"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Result is one quota check outcome.
type Result struct {
	Service            string  `json:"service"`
	QuotaName          string  `json:"quota_name"`
	CurrentUsage       int     `json:"current_usage"`
	ProposedUsage      int     `json:"proposed_usage"`
	QuotaLimit         int     `json:"quota_limit"`
	UtilizationPercent float64 `json:"utilization_percent"`
	Level              Level   `json:"level"`
	Message            string  `json:"message"`
}

// ExitCode maps results to the process exit contract: 1 when any check
// failed, 2 when any check warned, 0 otherwise.
func ExitCode(results []Result) int {
	code := 0
	for _, r := range results {
		switch r.Level {
		case LevelError:
			return 1
		case LevelWarning:
			code = 2
		}
	}
	return code
}
