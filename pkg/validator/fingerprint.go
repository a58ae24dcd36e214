package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sg-platform/sgctl/pkg/config"
)

// fingerprintRule builds a canonical representation of a rule for duplicate
// detection. List-valued sources are sorted so ordering differences do not
// hide duplicates; description is deliberately excluded. Elements render
// with %#v so strings stay quoted and escaped: "80" never collides with the
// number 80, and a list holding "a,b" never collides with ["a","b"].
func fingerprintRule(rule *config.Rule) string {
	self := any(false)
	if rule.Self.Set && rule.Self.Data != nil {
		self = rule.Self.Data
	}
	parts := []string{
		fmt.Sprintf("%#v", rule.Protocol.Data),
		fmt.Sprintf("%#v", rule.FromPort.Data),
		fmt.Sprintf("%#v", rule.ToPort.Data),
		sortedForm(rule.CIDRBlocks),
		sortedForm(rule.IPv6CIDRBlocks),
		sortedForm(rule.SecurityGroups),
		sortedForm(rule.PrefixListIDs),
		fmt.Sprintf("%#v", self),
	}
	return strings.Join(parts, "|")
}

// sortedForm renders a field's value as a sorted tuple of quoted elements.
// Non-list values collapse to a single-element form; absent and null values
// are empty.
func sortedForm(value config.Value) string {
	if !value.Set || value.Data == nil {
		return "[]"
	}
	list, ok := value.Data.([]any)
	if !ok {
		return fmt.Sprintf("[%#v]", value.Data)
	}
	items := make([]string, 0, len(list))
	for _, item := range list {
		items = append(items, fmt.Sprintf("%#v", item))
	}
	sort.Strings(items)
	return "[" + strings.Join(items, ",") + "]"
}
