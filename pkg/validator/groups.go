package validator

import (
	"fmt"
	"strings"

	"github.com/sg-platform/sgctl/pkg/config"
	"github.com/sg-platform/sgctl/pkg/finding"
)

func (v *Validator) checkSecurityGroups(doc *config.Document, summary *finding.Summary) {
	for _, entry := range v.groups(doc) {
		v.checkSecurityGroup(entry.Name, entry.Value, summary)
	}
}

func (v *Validator) checkSecurityGroup(sgName string, value any, summary *finding.Summary) {
	context := "security_group." + sgName

	sg, ok := value.(*config.SecurityGroup)
	if !ok {
		summary.Add(finding.Errorf("sg_type", context,
			"Security group '%s' must be a dictionary/object, got %s", sgName, config.TypeName(value)))
		return
	}

	desc, isString := sg.Description.String()
	if !sg.Description.Set || !isString || strings.TrimSpace(desc) == "" {
		summary.Add(finding.Errorf("sg_required_description", context,
			"❌ Security group '%s' must have a non-empty description — descriptions help identify the purpose and scope of the security group.\n   → Add a clear description explaining what this security group protects.",
			sgName))
	}

	v.checkRuleList(sgName, "ingress", sg.Ingress, summary)
	v.checkRuleList(sgName, "egress", sg.Egress, summary)

	ingressCount := ruleCount(sg.Ingress)
	egressCount := ruleCount(sg.Egress)

	if ingressCount > v.guardrails.MaxIngressRules {
		summary.Add(finding.Errorf("sg_rule_count_limit", context,
			"❌ Security group '%s' has %d ingress rules, maximum is %d — too many rules make security groups hard to manage and can impact performance.\n   → Consolidate similar rules or split into multiple security groups by function.",
			sgName, ingressCount, v.guardrails.MaxIngressRules))
	}
	if egressCount > v.guardrails.MaxEgressRules {
		summary.Add(finding.Errorf("sg_rule_count_limit", context,
			"❌ Security group '%s' has %d egress rules, maximum is %d — too many rules make security groups hard to manage and can impact performance.\n   → Consolidate similar rules or split into multiple security groups by function.",
			sgName, egressCount, v.guardrails.MaxEgressRules))
	}

	if len(v.guardrails.RequiredTags) > 0 {
		tags, _ := sg.Tags.Mapping()
		var missing []string
		for _, required := range v.guardrails.RequiredTags {
			if _, ok := tags[required]; !ok {
				missing = append(missing, required)
			}
		}
		if len(missing) > 0 {
			summary.Add(finding.Errorf("sg_required_tags", context,
				"❌ Missing required tags: %s — all security groups must include corporate mandatory tags for compliance tracking.\n   → Required tags: %s",
				strings.Join(missing, ", "), strings.Join(v.guardrails.RequiredTags, ", ")))
		}
	}
}

func (v *Validator) checkRuleList(sgName, direction string, rules config.Value, summary *finding.Summary) {
	context := "security_group." + sgName

	if !rules.Set {
		return
	}

	items, ok := rules.List()
	if !ok {
		summary.Add(finding.Errorf(fmt.Sprintf("sg_%s_type", direction), context,
			"Security group '%s' %s must be a list", sgName, direction))
		return
	}

	if len(items) == 0 {
		summary.Add(finding.Warnf("sg_empty_rules", context,
			"⚠️ Security group '%s' has an empty %s list — remove it or add rules.", sgName, direction))
		return
	}

	for i, item := range items {
		v.checkRule(sgName, direction, i, item, summary)
	}
	v.checkDuplicateRules(sgName, direction, items, summary)
}

// ruleCount returns the rule list length, or zero when the field is absent
// or not a list.
func ruleCount(rules config.Value) int {
	items, ok := rules.List()
	if !ok {
		return 0
	}
	return len(items)
}

func (v *Validator) checkDuplicateRules(sgName, direction string, items []any, summary *finding.Summary) {
	seen := map[string]int{}
	for i, item := range items {
		rule, ok := item.(*config.Rule)
		if !ok {
			continue
		}
		key := fingerprintRule(rule)
		if first, dup := seen[key]; dup {
			summary.Add(finding.Errorf("rule_duplicate",
				fmt.Sprintf("security_group.%s.%s[%d]", sgName, direction, i),
				"❌ Duplicate rule: %s %s[%d] is identical to %s[%d] — AWS will silently dedupe this but it indicates a copy-paste error.\n   → Remove the duplicate rule.",
				sgName, direction, i, direction, first))
		} else {
			seen[key] = i
		}
	}
}
