package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sg-platform/sgctl/pkg/finding"
)

func sampleSummary() *finding.Summary {
	s := finding.NewSummary()
	s.Add(finding.Errorf("rule_blocked_port", "security_group.app-sg.ingress[0]",
		"❌ Port 23 (Telnet) is blocked"))
	s.Add(finding.Errorf("schema_unknown_key", "", "❌ Unknown top-level key 'enviroment'"))
	s.Add(finding.Warnf("high_risk_pattern", "security_group.bastion-sg.ingress[0]",
		"⚠️ HIGH: SSH (port 22) ingress from CIDR"))
	s.Add(finding.Infof("rule_aws_prefix_list", "security_group.app-sg.egress[0]",
		"Using AWS managed prefix list 'pl-12345678'"))
	return s
}

func TestFormatIsUnknown(t *testing.T) {
	assert.False(t, FormatText.IsUnknown())
	assert.False(t, FormatJSON.IsUnknown())
	assert.False(t, FormatMarkdown.IsUnknown())
	assert.True(t, Format("xml").IsUnknown())
	assert.True(t, Format("").IsUnknown())
}

func TestOptionsApplyNoWarnings(t *testing.T) {
	s := sampleSummary()
	Options{NoWarnings: true}.Apply(s)

	assert.Empty(t, s.Warnings)
	assert.Len(t, s.Errors, 2)
	assert.Equal(t, 1, s.ExitCode())
}

func TestOptionsApplyWarningsAsErrors(t *testing.T) {
	s := finding.NewSummary()
	s.Add(finding.Warnf("high_risk_pattern", "security_group.app-sg.ingress[0]", "warning"))
	Options{WarningsAsErrors: true}.Apply(s)

	assert.Empty(t, s.Warnings)
	require.Len(t, s.Errors, 1)
	assert.Equal(t, finding.LevelWarning, s.Errors[0].Level)
	assert.Equal(t, 1, s.ExitCode())
}

func TestOptionsApplyWarningsAsErrorsKeepsWarningsWhenErrorsPresent(t *testing.T) {
	s := finding.NewSummary()
	s.Add(finding.Errorf("rule_blocked_port", "security_group.app-sg.ingress[0]", "error"))
	s.Add(finding.Warnf("high_risk_pattern", "security_group.app-sg.ingress[1]", "warning"))
	Options{WarningsAsErrors: true}.Apply(s)

	// The exit code is already 1, so the rendered counts stay faithful.
	require.Len(t, s.Errors, 1)
	require.Len(t, s.Warnings, 1)
	assert.Equal(t, 1, s.ExitCode())
}

func TestOptionsApplyNoWarningsWinsOverPromotion(t *testing.T) {
	s := finding.NewSummary()
	s.Add(finding.Warnf("high_risk_pattern", "", "warning"))
	Options{NoWarnings: true, WarningsAsErrors: true}.Apply(s)

	assert.Empty(t, s.Warnings)
	assert.Empty(t, s.Errors)
	assert.Equal(t, 0, s.ExitCode())
}

func TestRenderTextPassed(t *testing.T) {
	r := Report{
		AccountDir: "accounts/123456789012",
		AccountID:  "123456789012",
		Summary:    finding.NewSummary(),
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, FormatText))

	out := buf.String()
	assert.Contains(t, out, "Validating AWS Security Groups for account: 123456789012")
	assert.Contains(t, out, "Directory: accounts/123456789012")
	assert.Contains(t, out, "Errors: 0")
	assert.Contains(t, out, "✅ All validations passed!")
	assert.NotContains(t, out, "Info:")
}

func TestRenderTextWithFindings(t *testing.T) {
	r := Report{
		AccountDir: "accounts/123456789012",
		AccountID:  "123456789012",
		Summary:    sampleSummary(),
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, FormatText))

	out := buf.String()
	assert.Contains(t, out, "❌ Errors:")
	assert.Contains(t, out, "[security_group.app-sg.ingress[0]] (rule_blocked_port)")
	assert.Contains(t, out, "⚠️  Warnings:")
	assert.Contains(t, out, "❌ Validation failed with errors")
	// Info findings stay hidden without verbose.
	assert.NotContains(t, out, "pl-12345678")
}

func TestRenderTextVerbose(t *testing.T) {
	r := Report{
		AccountID: "123456789012",
		Summary:   sampleSummary(),
		Options:   Options{Verbose: true},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, FormatText))

	out := buf.String()
	assert.Contains(t, out, "ℹ️  Info:")
	assert.Contains(t, out, "pl-12345678")
	assert.Contains(t, out, "Info: 1")
}

func TestRenderJSONShape(t *testing.T) {
	r := Report{
		AccountDir: "accounts/123456789012",
		AccountID:  "123456789012",
		Summary:    sampleSummary(),
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, FormatJSON))

	var out struct {
		AccountDir string `json:"account_dir"`
		AccountID  string `json:"account_id"`
		Results    struct {
			Errors   []finding.Finding `json:"errors"`
			Warnings []finding.Finding `json:"warnings"`
			Info     []finding.Finding `json:"info"`
		} `json:"validation_results"`
		Summary struct {
			ErrorCount   int `json:"error_count"`
			WarningCount int `json:"warning_count"`
			InfoCount    int `json:"info_count"`
			ExitCode     int `json:"exit_code"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "123456789012", out.AccountID)
	assert.Len(t, out.Results.Errors, 2)
	assert.Len(t, out.Results.Warnings, 1)
	// Info is suppressed without verbose, but the count is still reported.
	assert.Empty(t, out.Results.Info)
	assert.Equal(t, 1, out.Summary.InfoCount)
	assert.Equal(t, 1, out.Summary.ExitCode)
}

func TestRenderJSONEmptyArraysNotNull(t *testing.T) {
	r := Report{AccountID: "123456789012", Summary: finding.NewSummary()}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, FormatJSON))

	out := buf.String()
	assert.Contains(t, out, `"errors": []`)
	assert.Contains(t, out, `"warnings": []`)
	assert.NotContains(t, out, "null")
}

func TestRenderMarkdownClean(t *testing.T) {
	r := Report{AccountID: "123456789012", Summary: finding.NewSummary()}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, FormatMarkdown))

	out := buf.String()
	assert.Contains(t, out, "## ✅ Security Group Validation Results")
	assert.Contains(t, out, "All checks passed!")
	assert.NotContains(t, out, "<details>")
}

func TestRenderMarkdownBuckets(t *testing.T) {
	s := sampleSummary()
	s.Add(finding.Errorf("sg_required_tags", "security_group.app-sg", "❌ Missing required tag 'Owner'"))

	r := Report{AccountID: "123456789012", Summary: s}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, FormatMarkdown))

	out := buf.String()
	assert.Contains(t, out, "**Account:** 123456789012 | **Errors:** 3 | **Warnings:** 1")
	assert.Contains(t, out, "⚙️ Configuration Issues — 1 errors, 0 warnings")
	assert.Contains(t, out, "🏷️ Tag Compliance — 1 errors, 0 warnings")
	assert.Contains(t, out, "❌ app-sg — 1 errors, 0 warnings")
	assert.Contains(t, out, "⚠️ bastion-sg — 0 errors, 1 warnings")
	// The severity emoji comes from the bullet, not the message.
	assert.NotContains(t, out, "❌ ❌")
	assert.NotContains(t, out, "- ❌ Port 23 (Telnet) is blocked\n- ❌ ❌")
}

func TestRenderMarkdownSectionOrder(t *testing.T) {
	r := Report{AccountID: "123456789012", Summary: sampleSummary()}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, FormatMarkdown))

	out := buf.String()
	config := strings.Index(out, "Configuration Issues")
	app := strings.Index(out, "app-sg —")
	bastion := strings.Index(out, "bastion-sg —")
	require.True(t, config >= 0 && app >= 0 && bastion >= 0, "missing sections in:\n%s", out)
	assert.Less(t, config, app)
	assert.Less(t, app, bastion)
}

func TestRenderUnsupportedFormat(t *testing.T) {
	r := Report{Summary: finding.NewSummary()}

	var buf bytes.Buffer
	err := r.Render(&buf, Format("xml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}
