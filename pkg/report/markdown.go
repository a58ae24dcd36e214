package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/sg-platform/sgctl/pkg/finding"
)

// Rule buckets for the markdown report. Tag compliance and schema problems
// get their own sections; everything else is grouped by security group.
var (
	tagRules = map[string]bool{
		"sg_required_tags": true,
	}
	schemaRules = map[string]bool{
		"schema_unknown_key":         true,
		"schema_unknown_sg_key":      true,
		"schema_unknown_rule_key":    true,
		"schema_required_fields":     true,
		"schema_type":                true,
		"schema_invalid_environment": true,
		"schema_environment_type":    true,
		"file_exists":                true,
		"yaml_syntax":                true,
		"yaml_content":               true,
	}
)

type bucket struct {
	errors   []finding.Finding
	warnings []finding.Finding
}

func (b *bucket) add(f finding.Finding) {
	if f.Level == finding.LevelError {
		b.errors = append(b.errors, f)
	} else {
		b.warnings = append(b.warnings, f)
	}
}

func (r Report) renderMarkdown(w io.Writer) error {
	var b strings.Builder

	errorCount := len(r.Summary.Errors)
	warningCount := len(r.Summary.Warnings)

	if errorCount == 0 && warningCount == 0 {
		b.WriteString("## ✅ Security Group Validation Results\n\n")
		fmt.Fprintf(&b, "**Account:** %s | **Status:** All checks passed!", r.AccountID)
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("## 🔍 Security Group Validation Results\n")
	fmt.Fprintf(&b, "**Account:** %s | **Errors:** %d | **Warnings:** %d\n\n", r.AccountID, errorCount, warningCount)

	var tags, schema bucket
	groupOrder := []string{}
	groups := map[string]*bucket{}

	all := make([]finding.Finding, 0, errorCount+warningCount)
	all = append(all, r.Summary.Errors...)
	all = append(all, r.Summary.Warnings...)

	for _, f := range all {
		switch {
		case tagRules[f.Rule]:
			tags.add(f)
		case schemaRules[f.Rule] || !strings.Contains(f.Context, "security_group."):
			schema.add(f)
		default:
			name := groupNameFromContext(f.Context)
			g, ok := groups[name]
			if !ok {
				g = &bucket{}
				groups[name] = g
				groupOrder = append(groupOrder, name)
			}
			g.add(f)
		}
	}

	if len(schema.errors) > 0 || len(schema.warnings) > 0 {
		title := fmt.Sprintf("⚙️ Configuration Issues — %d errors, %d warnings", len(schema.errors), len(schema.warnings))
		renderSection(&b, title, schema)
	}

	if len(tags.errors) > 0 || len(tags.warnings) > 0 {
		title := fmt.Sprintf("🏷️ Tag Compliance — %d errors, %d warnings", len(tags.errors), len(tags.warnings))
		renderSection(&b, title, tags)
	}

	for _, name := range groupOrder {
		g := groups[name]
		emoji := "⚠️"
		if len(g.errors) > 0 {
			emoji = "❌"
		}
		title := fmt.Sprintf("%s %s — %d errors, %d warnings", emoji, name, len(g.errors), len(g.warnings))
		renderSection(&b, title, *g)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderSection(b *strings.Builder, title string, bk bucket) {
	b.WriteString("<details>\n")
	fmt.Fprintf(b, "<summary>%s</summary>\n\n", title)
	if len(bk.errors) > 0 {
		b.WriteString("### Errors\n")
		for _, f := range bk.errors {
			fmt.Fprintf(b, "- ❌ %s\n", stripLevelMarker(f.Message, "❌"))
		}
		b.WriteString("\n")
	}
	if len(bk.warnings) > 0 {
		b.WriteString("### Warnings\n")
		for _, f := range bk.warnings {
			fmt.Fprintf(b, "- ⚠️ %s\n", stripLevelMarker(f.Message, "⚠️"))
		}
		b.WriteString("\n")
	}
	b.WriteString("</details>\n\n")
}

// stripLevelMarker removes a leading severity emoji so the list bullet's
// own marker is not doubled.
func stripLevelMarker(message, marker string) string {
	return strings.TrimSpace(strings.TrimPrefix(message, marker))
}

// groupNameFromContext extracts the group name from a context path like
// "security_group.<name>.ingress[0]".
func groupNameFromContext(context string) string {
	rest := context[strings.Index(context, "security_group.")+len("security_group."):]
	if i := strings.Index(rest, "."); i >= 0 {
		return rest[:i]
	}
	return rest
}
