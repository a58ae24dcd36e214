package validator

import (
	"fmt"
	"strings"

	"github.com/sg-platform/sgctl/pkg/config"
	"github.com/sg-platform/sgctl/pkg/finding"
	"github.com/sg-platform/sgctl/pkg/policy"
)

// Name patterns used to infer a group's type, checked in order. First
// match wins.
func inferGroupType(sgName string) string {
	name := strings.ToLower(sgName)
	switch {
	case strings.Contains(name, "eks") && strings.Contains(name, "node"):
		return "eks-nodes"
	case strings.Contains(name, "nlb") || strings.Contains(name, "network-lb"):
		return "nlb"
	case strings.Contains(name, "web") || strings.Contains(name, "http"):
		return "web"
	case strings.Contains(name, "alb") || strings.Contains(name, "application-lb"):
		return "alb"
	case strings.Contains(name, "rds") || strings.Contains(name, "database") || strings.Contains(name, "db"):
		return "database"
	default:
		return "general"
	}
}

func (v *Validator) checkTypeOverrides(doc *config.Document, summary *finding.Summary) {
	for _, entry := range v.groups(doc) {
		sg, ok := entry.Value.(*config.SecurityGroup)
		if !ok {
			continue
		}
		sgType := inferGroupType(entry.Name)
		override, ok := v.guardrails.Override(sgType)
		if !ok {
			continue
		}
		v.applyTypeOverride(entry.Name, sg, sgType, override, summary)
	}
}

func (v *Validator) applyTypeOverride(sgName string, sg *config.SecurityGroup, sgType string, override policy.TypeOverride, summary *finding.Summary) {
	context := "security_group." + sgName

	if len(override.AllowedProtocols) > 0 {
		for _, dir := range []struct {
			name  string
			rules config.Value
		}{
			{"ingress", sg.Ingress},
			{"egress", sg.Egress},
		} {
			items, ok := dir.rules.List()
			if !ok {
				continue
			}
			for i, item := range items {
				rule, ok := item.(*config.Rule)
				if !ok {
					continue
				}
				if !rule.Protocol.Set || rule.Protocol.Data == nil {
					continue
				}
				// Numeric protocols compare by their string form so
				// protocol: 6 is held to the allow list like "6".
				protocol := fmt.Sprintf("%v", rule.Protocol.Data)
				if protocol != "" && !override.AllowsProtocol(protocol) {
					summary.Add(finding.Errorf("type_protocol_restriction", context,
						"Protocol '%s' not allowed for %s type in %s %s[%d]", protocol, sgType, sgName, dir.name, i))
				}
			}
		}
	}

	if override.MaxRules != nil {
		total := ruleCount(sg.Ingress) + ruleCount(sg.Egress)
		if total > *override.MaxRules {
			summary.Add(finding.Errorf("type_rule_count_override", context,
				"Security group '%s' has %d rules, maximum for %s is %d", sgName, total, sgType, *override.MaxRules))
		}
	}
}
