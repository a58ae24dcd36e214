package validator

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/sg-platform/sgctl/pkg/config"
	"github.com/sg-platform/sgctl/pkg/finding"
)

// checkASCII rejects non-ASCII and non-printable characters in every
// user-authored string that ends up in provisioned infrastructure. Unicode
// homoglyphs and zero-width characters break Terraform runs and can make
// two different configurations look identical in review.
func (v *Validator) checkASCII(doc *config.Document, summary *finding.Summary) {
	for _, entry := range v.groups(doc) {
		checkASCIIField(entry.Name, fmt.Sprintf("security_group.%s.name", entry.Name), summary)

		sg, ok := entry.Value.(*config.SecurityGroup)
		if !ok {
			continue
		}

		if desc, ok := sg.Description.String(); ok {
			checkASCIIField(desc, fmt.Sprintf("security_group.%s.description", entry.Name), summary)
		}

		if tags, ok := sg.Tags.Mapping(); ok {
			for _, key := range sortedTagKeys(tags) {
				checkASCIIField(key, fmt.Sprintf("security_group.%s.tags.key.%s", entry.Name, key), summary)
				if value, ok := tags[key].(string); ok {
					checkASCIIField(value, fmt.Sprintf("security_group.%s.tags.value.%s", entry.Name, key), summary)
				}
			}
		}

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
				if desc, ok := rule.Description.String(); ok {
					checkASCIIField(desc, fmt.Sprintf("security_group.%s.%s[%d].description", entry.Name, dir.name, i), summary)
				}
				for _, cidrField := range []struct {
					name  string
					value config.Value
				}{
					{"cidr_blocks", rule.CIDRBlocks},
					{"ipv6_cidr_blocks", rule.IPv6CIDRBlocks},
				} {
					list, ok := cidrField.value.List()
					if !ok {
						continue
					}
					for j, cidrItem := range list {
						if cidr, ok := cidrItem.(string); ok {
							checkASCIIField(cidr, fmt.Sprintf("security_group.%s.%s[%d].%s[%d]", entry.Name, dir.name, i, cidrField.name, j), summary)
						}
					}
				}
			}
		}
	}
}

// checkASCIIField emits at most one error per field, citing the first
// offending character's code point and position.
func checkASCIIField(value, fieldPath string, summary *finding.Summary) {
	position := 0
	for _, r := range value {
		if !asciiPrintable(r) {
			summary.Add(finding.Errorf("unicode_character", fieldPath,
				"Non-ASCII character %s (U+%04X) found in %s at position %d — only ASCII-printable characters are allowed. Non-ASCII characters cause TFE/Terraform errors.",
				strconv.QuoteRune(r), r, fieldPath, position))
			return
		}
		position++
	}
}

func asciiPrintable(r rune) bool {
	if r >= 0x20 && r < 0x7f {
		return true
	}
	switch r {
	case '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func sortedTagKeys(tags map[string]any) []string {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
