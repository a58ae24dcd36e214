package validator

import (
	"strings"

	"github.com/sg-platform/sgctl/pkg/config"
	"github.com/sg-platform/sgctl/pkg/finding"
)

// reservedNamePrefixes are name prefixes claimed by AWS or the platform
// baseline. Using one is suspicious but not forbidden.
var reservedNamePrefixes = []string{"default", "baseline", "aws-", "amazon-"}

func (v *Validator) checkNaming(doc *config.Document, summary *finding.Summary) {
	for _, entry := range v.groups(doc) {
		context := "security_group." + entry.Name

		if !v.namePattern.MatchString(entry.Name) {
			summary.Add(finding.Errorf("naming_pattern_violation", context,
				"Security group name '%s' doesn't match required pattern: %s", entry.Name, v.guardrails.NamingPattern))
		}

		if len(entry.Name) > v.guardrails.MaxNameLength {
			summary.Add(finding.Errorf("naming_length_violation", context,
				"Security group name '%s' is too long (%d chars, max %d)", entry.Name, len(entry.Name), v.guardrails.MaxNameLength))
		}

		for _, prefix := range reservedNamePrefixes {
			if strings.HasPrefix(entry.Name, prefix) {
				summary.Add(finding.Warnf("naming_reserved_pattern", context,
					"Security group name '%s' starts with reserved pattern '%s'", entry.Name, prefix))
			}
		}
	}
}
