package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sg-platform/sgctl/pkg/config"
	"github.com/sg-platform/sgctl/pkg/finding"
)

// Recognized key sets, used for typo detection. Unknown keys are silently
// ignored downstream, so a mistyped key means the author's intent never
// applies.
var (
	knownTopLevelKeys = []string{"account_id", "baseline_profiles", "environment", "security_groups", "tags"}
	knownGroupKeys    = []string{"description", "egress", "ingress", "tags", "type"}
	knownRuleKeys     = []string{"cidr_blocks", "description", "from_port", "ipv6_cidr_blocks", "prefix_list_ids", "protocol", "security_groups", "self", "to_port"}
)

var validEnvironments = []string{"dev", "prod", "test"}

func (v *Validator) checkSchema(doc *config.Document, summary *finding.Summary) {
	if !doc.AccountID.Set {
		summary.Add(finding.Errorf("schema_required_fields", "", "Required field 'account_id' is missing"))
	}
	if !doc.SecurityGroups.Set {
		summary.Add(finding.Errorf("schema_required_fields", "", "Required field 'security_groups' is missing"))
	}

	for _, key := range sorted(doc.UnknownKeys) {
		summary.Add(finding.Errorf("schema_unknown_key", "",
			"❌ Unknown top-level key '%s' — did you mean one of: %s?\n   → Typos in key names are silently ignored and your config won't apply.",
			key, strings.Join(knownTopLevelKeys, ", ")))
	}

	if doc.Environment.Set {
		env, ok := doc.Environment.String()
		if !ok {
			summary.Add(finding.Errorf("schema_environment_type", "",
				"'environment' must be a string, got %s", config.TypeName(doc.Environment.Data)))
		} else if !contains(validEnvironments, env) {
			summary.Add(finding.Errorf("schema_invalid_environment", "",
				"❌ Invalid environment '%s' — must be one of: %s\n   → This controls environment-specific guardrails and tagging.",
				env, strings.Join(validEnvironments, ", ")))
		}
	}

	if doc.SecurityGroups.Set {
		entries, ok := doc.SecurityGroups.Data.([]config.GroupEntry)
		if !ok {
			summary.Add(finding.Errorf("schema_type", "", "'security_groups' must be a dictionary/object"))
			return
		}
		for _, entry := range entries {
			sg, ok := entry.Value.(*config.SecurityGroup)
			if !ok {
				continue
			}
			for _, key := range sorted(sg.UnknownKeys) {
				summary.Add(finding.Errorf("schema_unknown_sg_key",
					fmt.Sprintf("security_group.%s", entry.Name),
					"❌ Unknown key '%s' in security group '%s' — valid keys: %s\n   → Typos are silently ignored. Check spelling.",
					key, entry.Name, strings.Join(knownGroupKeys, ", ")))
			}
			v.checkRuleKeys(entry.Name, "ingress", sg.Ingress, summary)
			v.checkRuleKeys(entry.Name, "egress", sg.Egress, summary)
		}
	}
}

func (v *Validator) checkRuleKeys(sgName, direction string, rules config.Value, summary *finding.Summary) {
	items, ok := rules.List()
	if !ok {
		return
	}
	for i, item := range items {
		rule, ok := item.(*config.Rule)
		if !ok {
			continue
		}
		for _, key := range sorted(rule.UnknownKeys) {
			summary.Add(finding.Errorf("schema_unknown_rule_key",
				fmt.Sprintf("security_group.%s.%s[%d]", sgName, direction, i),
				"❌ Unknown key '%s' in %s %s[%d] — valid keys: %s\n   → This key will be ignored. Check spelling.",
				key, sgName, direction, i, strings.Join(knownRuleKeys, ", ")))
		}
	}
}

func sorted(keys []string) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
