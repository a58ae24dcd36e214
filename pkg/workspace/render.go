package workspace

import (
	"fmt"
	"strings"
)

// FormatPlanText renders a plan as human-readable console output.
func FormatPlanText(actions []Action) string {
	if len(actions) == 0 {
		return "✅ No actions needed — all workspaces are in sync."
	}

	creates := filterActions(actions, ActionCreate)
	updates := filterActions(actions, ActionUpdate)
	triggers := filterActions(actions, ActionTriggerRun)
	skips := filterActions(actions, ActionSkip)

	lines := []string{"📋 TFE Workspace Provisioning Plan", strings.Repeat("=", 50), ""}

	if len(creates) > 0 {
		lines = append(lines, fmt.Sprintf("🆕 Workspaces to create: %d", len(creates)))
		for _, a := range creates {
			lines = append(lines,
				fmt.Sprintf("   + %s (account %s)", a.Workspace, a.AccountID),
				fmt.Sprintf("     Reason: %s", a.Reason))
		}
		lines = append(lines, "")
	}

	if len(updates) > 0 {
		lines = append(lines, fmt.Sprintf("🔄 Workspaces to update: %d", len(updates)))
		for _, a := range updates {
			lines = append(lines,
				fmt.Sprintf("   ~ %s (account %s)", a.Workspace, a.AccountID),
				fmt.Sprintf("     Drift: %s", strings.Join(driftFields(a), ", ")))
		}
		lines = append(lines, "")
	}

	if len(triggers) > 0 {
		lines = append(lines, fmt.Sprintf("🚀 Runs to trigger: %d", len(triggers)))
		for _, a := range triggers {
			lines = append(lines,
				fmt.Sprintf("   → %s (account %s)", a.Workspace, a.AccountID),
				fmt.Sprintf("     Reason: %s", a.Reason))
		}
		lines = append(lines, "")
	}

	if len(skips) > 0 {
		lines = append(lines, fmt.Sprintf("⏭️  Skipped: %d", len(skips)))
		for _, a := range skips {
			lines = append(lines, fmt.Sprintf("   - %s: %s", a.Workspace, a.Reason))
		}
		lines = append(lines, "")
	}

	lines = append(lines, fmt.Sprintf("Total: %d create, %d update, %d trigger, %d skip",
		len(creates), len(updates), len(triggers), len(skips)))
	return strings.Join(lines, "\n")
}

// FormatPlanMarkdown renders a plan as markdown for PR comments.
func FormatPlanMarkdown(actions []Action) string {
	if len(actions) == 0 {
		return "## ✅ TFE Workspace Status\n\nAll workspaces in sync. No changes needed."
	}

	creates := filterActions(actions, ActionCreate)
	updates := filterActions(actions, ActionUpdate)
	triggers := filterActions(actions, ActionTriggerRun)
	skips := filterActions(actions, ActionSkip)

	lines := []string{"## 📋 TFE Workspace Provisioning Plan", ""}

	var summary []string
	if len(creates) > 0 {
		summary = append(summary, fmt.Sprintf("**%d** to create", len(creates)))
	}
	if len(updates) > 0 {
		summary = append(summary, fmt.Sprintf("**%d** to update", len(updates)))
	}
	if len(triggers) > 0 {
		summary = append(summary, fmt.Sprintf("**%d** runs to trigger", len(triggers)))
	}
	if len(skips) > 0 {
		summary = append(summary, fmt.Sprintf("**%d** skipped", len(skips)))
	}
	lines = append(lines, strings.Join(summary, " | "), "")

	if len(creates) > 0 {
		lines = append(lines, "<details>",
			fmt.Sprintf("<summary>🆕 Create %d workspace(s)</summary>", len(creates)), "")
		for _, a := range creates {
			cfg, _ := a.Details["config"].(Config)
			lines = append(lines,
				fmt.Sprintf("**`%s`** — account `%s`", a.Workspace, a.AccountID),
				fmt.Sprintf("- Working directory: `%s`", cfg.WorkingDirectory),
				fmt.Sprintf("- Terraform version: `%s`", cfg.TerraformVersion),
				fmt.Sprintf("- Auto-apply: `%t`", cfg.AutoApply))
			if len(cfg.TriggerPatterns) > 0 {
				lines = append(lines, fmt.Sprintf("- Trigger patterns: `%s`", strings.Join(cfg.TriggerPatterns, ", ")))
			}
			lines = append(lines, "")
		}
		lines = append(lines, "</details>", "")
	}

	if len(updates) > 0 {
		lines = append(lines, "<details>",
			fmt.Sprintf("<summary>🔄 Update %d workspace(s)</summary>", len(updates)), "")
		for _, a := range updates {
			lines = append(lines,
				fmt.Sprintf("**`%s`** — account `%s`", a.Workspace, a.AccountID),
				fmt.Sprintf("- Drifted fields: `%s`", strings.Join(driftFields(a), ", ")),
				"")
		}
		lines = append(lines, "</details>", "")
	}

	if len(triggers) > 0 {
		lines = append(lines, "<details>",
			fmt.Sprintf("<summary>🚀 Trigger %d run(s)</summary>", len(triggers)), "")
		for _, a := range triggers {
			lines = append(lines, fmt.Sprintf("**`%s`** — %s", a.Workspace, a.Reason), "")
		}
		lines = append(lines, "</details>", "")
	}

	return strings.Join(lines, "\n")
}

// FormatApplyText renders apply results as console output.
func FormatApplyText(results []ApplyResult) string {
	icons := map[string]string{
		"created":   "✅",
		"updated":   "🔄",
		"triggered": "🚀",
		"skipped":   "⏭️",
		"error":     "❌",
	}
	var lines []string
	for _, r := range results {
		icon, ok := icons[r.Status]
		if !ok {
			icon = "❓"
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s", icon, r.Workspace, r.Status))
		if r.Error != "" {
			lines = append(lines, fmt.Sprintf("   Error: %s", r.Error))
		}
	}
	return strings.Join(lines, "\n")
}

// HasApplyErrors reports whether any action failed.
func HasApplyErrors(results []ApplyResult) bool {
	for _, r := range results {
		if r.Status == "error" {
			return true
		}
	}
	return false
}

func filterActions(actions []Action, kind string) []Action {
	var out []Action
	for _, a := range actions {
		if a.Action == kind {
			out = append(out, a)
		}
	}
	return out
}

func driftFields(a Action) []string {
	switch d := a.Details["drift"].(type) {
	case []string:
		return d
	case []any:
		var out []string
		for _, item := range d {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
