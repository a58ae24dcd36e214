package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/sg-platform/sgctl/pkg/finding"
)

// Format represents the validation report output format.
type Format string

const (
	// FormatText is the human-readable console report.
	FormatText Format = "text"
	// FormatJSON is the machine-readable report.
	FormatJSON Format = "json"
	// FormatMarkdown is the PR-comment report with collapsible sections.
	FormatMarkdown Format = "markdown"
)

// IsUnknown returns true if the format is unknown.
func (f Format) IsUnknown() bool {
	return f != FormatText && f != FormatJSON && f != FormatMarkdown
}

func (f Format) String() string {
	return string(f)
}

// SupportedFormats returns a comma-separated list of supported formats.
func SupportedFormats() string {
	return fmt.Sprintf("%s, %s, %s", FormatText, FormatJSON, FormatMarkdown)
}

// Options controls how a summary is rendered and scored.
type Options struct {
	// Verbose includes info-level findings in the output.
	Verbose bool
	// WarningsAsErrors promotes warnings to errors for exit-code purposes.
	WarningsAsErrors bool
	// NoWarnings drops warnings from the output entirely.
	NoWarnings bool
}

// Apply mutates the summary per the options. Call once, before rendering.
func (o Options) Apply(summary *finding.Summary) {
	if o.NoWarnings {
		summary.Warnings = nil
	}
	// Promotion only matters for the exit code, so warnings stay warnings
	// when errors are already present.
	if o.WarningsAsErrors && summary.HasWarnings() && !summary.HasErrors() {
		summary.Errors = append(summary.Errors, summary.Warnings...)
		summary.Warnings = nil
	}
}

// Report is the complete rendering input for one validated account.
type Report struct {
	AccountDir string
	AccountID  string
	Summary    *finding.Summary
	Options    Options
}

// Render writes the report to w in the requested format.
func (r Report) Render(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return r.renderJSON(w)
	case FormatMarkdown:
		return r.renderMarkdown(w)
	case FormatText:
		return r.renderText(w)
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s)", format, SupportedFormats())
	}
}

func (r Report) renderText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "🔍 Validating AWS Security Groups for account: %s\n", r.AccountID)
	fmt.Fprintf(&b, "📁 Directory: %s\n\n", r.AccountDir)

	writeGroup := func(header string, items []finding.Finding) {
		if len(items) == 0 {
			return
		}
		b.WriteString(header + "\n")
		for _, f := range items {
			line := "   • " + f.Message
			if f.Context != "" {
				line += " [" + f.Context + "]"
			}
			if f.Rule != "" {
				line += " (" + f.Rule + ")"
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	writeGroup("❌ Errors:", r.Summary.Errors)
	writeGroup("⚠️  Warnings:", r.Summary.Warnings)
	if r.Options.Verbose {
		writeGroup("ℹ️  Info:", r.Summary.Info)
	}

	b.WriteString("📊 Summary:\n")
	fmt.Fprintf(&b, "   Errors: %d\n", len(r.Summary.Errors))
	fmt.Fprintf(&b, "   Warnings: %d\n", len(r.Summary.Warnings))
	if r.Options.Verbose {
		fmt.Fprintf(&b, "   Info: %d\n", len(r.Summary.Info))
	}

	switch r.Summary.ExitCode() {
	case 0:
		b.WriteString("\n✅ All validations passed!\n")
	case 2:
		b.WriteString("\n⚠️  Validation completed with warnings\n")
	default:
		b.WriteString("\n❌ Validation failed with errors\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
