package report

import (
	"encoding/json"
	"io"

	"github.com/sg-platform/sgctl/pkg/finding"
)

type jsonReport struct {
	AccountDir        string      `json:"account_dir"`
	AccountID         string      `json:"account_id"`
	ValidationResults jsonResults `json:"validation_results"`
	Summary           jsonCounts  `json:"summary"`
}

type jsonResults struct {
	Errors   []finding.Finding `json:"errors"`
	Warnings []finding.Finding `json:"warnings"`
	Info     []finding.Finding `json:"info"`
}

type jsonCounts struct {
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
	InfoCount    int `json:"info_count"`
	ExitCode     int `json:"exit_code"`
}

func (r Report) renderJSON(w io.Writer) error {
	info := []finding.Finding{}
	if r.Options.Verbose {
		info = emptyIfNil(r.Summary.Info)
	}
	out := jsonReport{
		AccountDir: r.AccountDir,
		AccountID:  r.AccountID,
		ValidationResults: jsonResults{
			Errors:   emptyIfNil(r.Summary.Errors),
			Warnings: emptyIfNil(r.Summary.Warnings),
			Info:     info,
		},
		Summary: jsonCounts{
			ErrorCount:   len(r.Summary.Errors),
			WarningCount: len(r.Summary.Warnings),
			InfoCount:    len(r.Summary.Info),
			ExitCode:     r.Summary.ExitCode(),
		},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func emptyIfNil(findings []finding.Finding) []finding.Finding {
	if findings == nil {
		return []finding.Finding{}
	}
	return findings
}
