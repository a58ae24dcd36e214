package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sg-platform/sgctl/pkg/config"
	"github.com/sg-platform/sgctl/pkg/policy"
)

// Deployment priorities: lower deploys first. Development before staging,
// production last; unknown environments ride with staging.
const (
	PriorityDev     = 1
	PriorityStaging = 2
	PriorityProd    = 3
)

// Account is one discovered account directory and its metadata, shaped for
// CI matrix builds.
type Account struct {
	AccountID          string            `json:"account_id"`
	Directory          string            `json:"directory"`
	Name               string            `json:"name"`
	HasSecurityGroups  bool              `json:"has_security_groups"`
	Environment        string            `json:"environment"`
	SecurityGroupCount int               `json:"security_group_count"`
	TotalRules         int               `json:"total_rules"`
	Tags               map[string]string `json:"tags,omitempty"`
	ParseError         string            `json:"parse_error,omitempty"`
	HasTerraform       bool              `json:"has_terraform"`
	TerraformFiles     []string          `json:"terraform_files,omitempty"`
	ChangeReason       string            `json:"change_reason,omitempty"`
	DeploymentPriority int               `json:"deployment_priority"`
}

// SortField selects the ordering of discovered accounts.
type SortField string

const (
	SortByAccountID   SortField = "account_id"
	SortByEnvironment SortField = "environment"
	SortByPriority    SortField = "priority"
	SortByName        SortField = "name"
)

// Accounts discovers every account directory under <repoRoot>/accounts.
// Hidden directories and the _example template are skipped. The result is
// sorted by account id.
func Accounts(repoRoot string) ([]Account, error) {
	accountsDir := filepath.Join(repoRoot, "accounts")
	entries, err := os.ReadDir(accountsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", accountsDir, err)
	}

	var accounts []Account
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == "_example" || name[0] == '.' {
			continue
		}
		path := filepath.Join(accountsDir, name)
		account, ok := analyzeDirectory(repoRoot, path)
		if ok {
			accounts = append(accounts, account)
		}
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].AccountID < accounts[j].AccountID
	})
	return accounts, nil
}

// Sort reorders accounts in place by the given field. Priority sorting
// breaks ties by account id.
func Sort(accounts []Account, field SortField) {
	switch field {
	case SortByAccountID:
		sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountID < accounts[j].AccountID })
	case SortByEnvironment:
		sort.Slice(accounts, func(i, j int) bool { return accounts[i].Environment < accounts[j].Environment })
	case SortByName:
		sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	default:
		sort.Slice(accounts, func(i, j int) bool {
			if accounts[i].DeploymentPriority != accounts[j].DeploymentPriority {
				return accounts[i].DeploymentPriority < accounts[j].DeploymentPriority
			}
			return accounts[i].AccountID < accounts[j].AccountID
		})
	}
}

// FilterEnvironments keeps accounts whose environment is in include (when
// non-empty) and not in exclude. Comparison is case-insensitive.
func FilterEnvironments(accounts []Account, include, exclude []string) []Account {
	includeSet := stringSet(include)
	excludeSet := stringSet(exclude)

	var out []Account
	for _, account := range accounts {
		env := strings.ToLower(account.Environment)
		if len(includeSet) > 0 && !includeSet[env] {
			continue
		}
		if excludeSet[env] {
			continue
		}
		out = append(out, account)
	}
	return out
}

func stringSet(values []string) map[string]bool {
	set := map[string]bool{}
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = true
		}
	}
	return set
}

// analyzeDirectory extracts account metadata. Directories that are neither
// named with a 12-digit id nor carry a security-groups document are not
// accounts.
func analyzeDirectory(repoRoot, path string) (Account, bool) {
	name := filepath.Base(path)
	sgFile := filepath.Join(path, policy.SecurityGroupsFileName)
	_, sgErr := os.Stat(sgFile)
	hasSecurityGroups := sgErr == nil

	if !policy.IsAccountID(name) && !hasSecurityGroups {
		return Account{}, false
	}

	rel, err := filepath.Rel(repoRoot, path)
	if err != nil {
		rel = path
	}

	account := Account{
		AccountID:         resolveAccountID(path, name),
		Directory:         rel,
		Name:              name,
		HasSecurityGroups: hasSecurityGroups,
		Environment:       "unknown",
	}

	if hasSecurityGroups {
		doc, err := config.LoadDocument(sgFile)
		if err != nil {
			// A broken document still identifies an account; the
			// validation job will surface the details.
			account.ParseError = err.Error()
		} else {
			if env, ok := doc.Environment.String(); ok {
				account.Environment = env
			}
			if tags, ok := doc.Tags.Mapping(); ok {
				account.Tags = stringTags(tags)
			}
			entries, _ := doc.SecurityGroups.Data.([]config.GroupEntry)
			account.SecurityGroupCount = len(entries)
			for _, entry := range entries {
				if sg, ok := entry.Value.(*config.SecurityGroup); ok {
					account.TotalRules += valueLen(sg.Ingress.Data) + valueLen(sg.Egress.Data)
				}
			}
		}
	}

	tfDir := filepath.Join(path, "terraform")
	if info, err := os.Stat(tfDir); err == nil && info.IsDir() {
		account.HasTerraform = true
		if matches, err := filepath.Glob(filepath.Join(tfDir, "*.tf")); err == nil {
			for _, m := range matches {
				account.TerraformFiles = append(account.TerraformFiles, filepath.Base(m))
			}
			sort.Strings(account.TerraformFiles)
		}
	}

	account.DeploymentPriority = deploymentPriority(account.Environment)
	return account, true
}

func resolveAccountID(path, name string) string {
	if policy.IsAccountID(name) {
		return name
	}
	if id, err := policy.ResolveAccountID(path); err == nil {
		return id
	}
	return name
}

func deploymentPriority(environment string) int {
	switch {
	case containsAny(environment, "dev", "test"):
		return PriorityDev
	case containsAny(environment, "staging", "stage"):
		return PriorityStaging
	case containsAny(environment, "prod"):
		return PriorityProd
	default:
		return PriorityStaging
	}
}

func containsAny(s string, substrings ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

func valueLen(v any) int {
	list, ok := v.([]any)
	if !ok {
		return 0
	}
	return len(list)
}

func stringTags(tags map[string]any) map[string]string {
	out := map[string]string{}
	for key, value := range tags {
		if s, ok := value.(string); ok {
			out[key] = s
		}
	}
	return out
}
