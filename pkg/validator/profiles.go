package validator

import (
	"sort"
	"strings"

	"github.com/sg-platform/sgctl/pkg/config"
	"github.com/sg-platform/sgctl/pkg/finding"
)

// Baseline profiles deployed by the platform alongside account-defined
// groups. The names must match the profiles published by the baseline
// security-group Terraform module.
var validBaselineProfiles = []string{"vpc-endpoints", "eks-internet", "eks-standard"}

// profileDependencies lists profiles that are auto-deployed when the keyed
// profile is requested.
var profileDependencies = map[string][]string{
	"eks-standard": {"vpc-endpoints"},
	"eks-internet": {"vpc-endpoints"},
}

// mutuallyExclusiveProfiles are sets where at most one member may be
// requested per account.
var mutuallyExclusiveProfiles = [][]string{
	{"eks-standard", "eks-internet"},
}

func (v *Validator) checkBaselineProfiles(doc *config.Document, summary *finding.Summary) {
	if !doc.BaselineProfiles.Set {
		return
	}

	items, ok := doc.BaselineProfiles.List()
	if !ok {
		summary.Add(finding.Errorf("baseline_profiles_type", "", "'baseline_profiles' must be a list"))
		return
	}

	profiles := make([]string, 0, len(items))
	for i, item := range items {
		profile, ok := item.(string)
		if !ok {
			summary.Add(finding.Errorf("baseline_profile_type", "",
				"baseline_profiles[%d] must be a string, got %s", i, config.TypeName(item)))
			continue
		}
		profiles = append(profiles, profile)

		if !contains(validBaselineProfiles, profile) {
			summary.Add(finding.Errorf("baseline_profile_name", "",
				"❌ Baseline profile '%s' does not exist. Available profiles: %s\n   → See terraform-aws-eks-baseline-sgs repo for profile details.",
				profile, strings.Join(validBaselineProfiles, ", ")))
		}
	}

	if dupes := duplicateStrings(profiles); len(dupes) > 0 {
		summary.Add(finding.Warnf("baseline_profile_duplicates", "",
			"Duplicate baseline profiles found: %s", strings.Join(dupes, ", ")))
	}

	for _, exclusive := range mutuallyExclusiveProfiles {
		var conflicts []string
		for _, profile := range exclusive {
			if contains(profiles, profile) {
				conflicts = append(conflicts, profile)
			}
		}
		if len(conflicts) > 1 {
			sort.Strings(conflicts)
			summary.Add(finding.Errorf("baseline_profile_conflict", "",
				"❌ Profiles %s cannot be used together — pick one EKS profile per account.\n   → Use 'eks-standard' for intranet-only clusters, 'eks-internet' for internet-facing clusters.",
				strings.Join(conflicts, ", ")))
		}
	}

	for _, profile := range profiles {
		for _, dep := range profileDependencies[profile] {
			if !contains(profiles, dep) {
				summary.Add(finding.Infof("baseline_profile_dependency", "",
					"ℹ️ Profile '%s' requires '%s' — it will be auto-deployed by the platform.", profile, dep))
			}
		}
	}

	if len(items) > 0 {
		effective := map[string]bool{}
		for _, profile := range profiles {
			effective[profile] = true
			for _, dep := range profileDependencies[profile] {
				effective[dep] = true
			}
		}
		names := make([]string, 0, len(effective))
		for name := range effective {
			names = append(names, name)
		}
		sort.Strings(names)
		summary.Add(finding.Infof("baseline_profiles_info", "",
			"Will deploy baseline profiles: %s", strings.Join(names, ", ")))
	}
}

// duplicateStrings returns the sorted distinct values that appear more
// than once.
func duplicateStrings(values []string) []string {
	counts := map[string]int{}
	for _, v := range values {
		counts[v]++
	}
	var dupes []string
	for v, n := range counts {
		if n > 1 {
			dupes = append(dupes, v)
		}
	}
	sort.Strings(dupes)
	return dupes
}
