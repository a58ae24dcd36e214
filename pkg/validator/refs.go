package validator

import (
	"sort"
	"strings"

	"github.com/sg-platform/sgctl/pkg/config"
	"github.com/sg-platform/sgctl/pkg/finding"
)

// checkPrefixListReferences resolves every named prefix-list reference in
// the document against the prefix-list catalog. AWS-managed ids (pl-*) are
// exempt; they resolve at apply time.
func (v *Validator) checkPrefixListReferences(doc *config.Document, summary *finding.Summary) {
	referenced := map[string]bool{}

	for _, entry := range v.groups(doc) {
		sg, ok := entry.Value.(*config.SecurityGroup)
		if !ok {
			continue
		}
		for _, rules := range []config.Value{sg.Ingress, sg.Egress} {
			items, ok := rules.List()
			if !ok {
				continue
			}
			for _, item := range items {
				rule, ok := item.(*config.Rule)
				if !ok {
					continue
				}
				ids, ok := rule.PrefixListIDs.List()
				if !ok {
					continue
				}
				for _, id := range ids {
					name, ok := id.(string)
					if ok && !strings.HasPrefix(name, "pl-") {
						referenced[name] = true
					}
				}
			}
		}
	}

	var undefined []string
	for name := range referenced {
		if !v.prefixLists.Contains(name) {
			undefined = append(undefined, name)
		}
	}
	sort.Strings(undefined)

	for _, name := range undefined {
		summary.Add(finding.Errorf("undefined_prefix_list_reference", "",
			"Referenced prefix list '%s' is not defined in prefix-lists.yaml", name))
	}
}
