package quota

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Report renders quota check results for the console or CI.
type Report struct {
	AccountID string
	Region    string
	VPCID     string
	Results   []Result
	Verbose   bool
}

type jsonReport struct {
	AccountID   string      `json:"account_id"`
	Region      string      `json:"region"`
	VPCID       string      `json:"vpc_id,omitempty"`
	QuotaChecks []Result    `json:"quota_checks"`
	Summary     jsonSummary `json:"summary"`
}

type jsonSummary struct {
	TotalChecks int `json:"total_checks"`
	Errors      int `json:"errors"`
	Warnings    int `json:"warnings"`
	ExitCode    int `json:"exit_code"`
}

// RenderJSON writes the machine-readable report.
func (r Report) RenderJSON(w io.Writer) error {
	errors, warnings := r.counts()
	out := jsonReport{
		AccountID:   r.AccountID,
		Region:      r.Region,
		VPCID:       r.VPCID,
		QuotaChecks: r.Results,
		Summary: jsonSummary{
			TotalChecks: len(r.Results),
			Errors:      errors,
			Warnings:    warnings,
			ExitCode:    ExitCode(r.Results),
		},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// RenderText writes the human-readable report.
func (r Report) RenderText(w io.Writer) error {
	var b strings.Builder

	b.WriteString("🔍 Checking AWS Security Group quotas\n")
	fmt.Fprintf(&b, "📋 Account: %s\n", r.AccountID)
	fmt.Fprintf(&b, "🌐 Region: %s\n", r.Region)
	if r.VPCID != "" {
		fmt.Fprintf(&b, "🏠 VPC: %s\n", r.VPCID)
	}
	b.WriteString("\n")

	byLevel := func(level Level) []Result {
		var out []Result
		for _, result := range r.Results {
			if result.Level == level {
				out = append(out, result)
			}
		}
		return out
	}
	errors := byLevel(LevelError)
	warnings := byLevel(LevelWarning)
	passed := byLevel(LevelOK)

	writeGroup := func(header string, results []Result, detail bool) {
		if len(results) == 0 {
			return
		}
		b.WriteString(header + "\n")
		for _, result := range results {
			fmt.Fprintf(&b, "   • %s\n", result.Message)
			if detail {
				fmt.Fprintf(&b, "     Current: %d, After: %d, Limit: %d\n",
					result.CurrentUsage, result.ProposedUsage, result.QuotaLimit)
			}
		}
		b.WriteString("\n")
	}

	writeGroup("❌ Quota Violations:", errors, r.Verbose)
	writeGroup("⚠️  Quota Warnings:", warnings, r.Verbose)
	if r.Verbose {
		writeGroup("✅ Quota Checks Passed:", passed, true)
	}

	b.WriteString("📊 Summary:\n")
	fmt.Fprintf(&b, "   Total checks: %d\n", len(r.Results))
	fmt.Fprintf(&b, "   Errors: %d\n", len(errors))
	fmt.Fprintf(&b, "   Warnings: %d\n", len(warnings))
	fmt.Fprintf(&b, "   Passed: %d\n", len(passed))

	switch ExitCode(r.Results) {
	case 0:
		b.WriteString("\n✅ All quota checks passed!\n")
	case 2:
		b.WriteString("\n⚠️  Quota checks completed with warnings\n")
	default:
		b.WriteString("\n❌ Quota checks failed - limits would be exceeded\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r Report) counts() (errors, warnings int) {
	for _, result := range r.Results {
		switch result.Level {
		case LevelError:
			errors++
		case LevelWarning:
			warnings++
		}
	}
	return errors, warnings
}
