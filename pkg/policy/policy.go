package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/sg-platform/sgctl/pkg/serializer"
)

const (
	// GuardrailsFileName is the policy document searched for at the
	// repository root.
	GuardrailsFileName = "guardrails.yaml"

	// PrefixListsFileName is the optional prefix-list catalog.
	PrefixListsFileName = "prefix-lists.yaml"

	// SecurityGroupsFileName is the per-account configuration document.
	SecurityGroupsFileName = "security-groups.yaml"
)

var (
	// ErrGuardrailsNotFound is returned when no guardrails document exists
	// in any parent of the starting directory. The engine cannot run
	// without a policy.
	ErrGuardrailsNotFound = errors.New("guardrails.yaml not found in any parent directory")

	// ErrAccountIDUnresolvable is returned when neither the directory name
	// nor the configuration document yields an account id.
	ErrAccountIDUnresolvable = errors.New("could not determine account id")
)

var accountIDPattern = regexp.MustCompile(`^\d{12}$`)

// IsAccountID reports whether s is a 12-digit account id.
func IsAccountID(s string) bool {
	return accountIDPattern.MatchString(s)
}

// FindRepoRoot walks upward from startDir until it finds a directory
// containing guardrails.yaml. It returns ErrGuardrailsNotFound when the
// filesystem root is reached without a match.
func FindRepoRoot(startDir string) (string, error) {
	current, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", startDir, err)
	}

	for {
		candidate := filepath.Join(current, GuardrailsFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("%w (searched upward from %s)", ErrGuardrailsNotFound, startDir)
		}
		current = parent
	}
}

// LoadGuardrails reads the guardrails document from the repository root and
// overlays it on the declared defaults. A missing or unparsable document is
// fatal.
func LoadGuardrails(repoRoot string) (*Guardrails, error) {
	path := filepath.Join(repoRoot, GuardrailsFileName)
	loaded, err := serializer.FromFile[guardrailsDoc](path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", GuardrailsFileName, err)
	}
	g := DefaultGuardrails()
	g.overlay(loaded)
	return g, nil
}

// PrefixList is one named, reusable set of CIDR ranges.
type PrefixList struct {
	Description string   `yaml:"description"`
	Entries     []string `yaml:"entries"`
}

// PrefixListCatalog maps prefix-list names to their definitions.
type PrefixListCatalog map[string]PrefixList

// Contains reports whether name is defined in the catalog.
func (c PrefixListCatalog) Contains(name string) bool {
	_, ok := c[name]
	return ok
}

type prefixListsDoc struct {
	PrefixLists PrefixListCatalog `yaml:"prefix_lists"`
}

// LoadPrefixLists reads the prefix-list catalog from the repository root.
// Absence is not an error; an empty catalog is returned.
func LoadPrefixLists(repoRoot string) (PrefixListCatalog, error) {
	path := filepath.Join(repoRoot, PrefixListsFileName)
	if _, err := os.Stat(path); err != nil {
		return PrefixListCatalog{}, nil
	}
	loaded, err := serializer.FromFile[prefixListsDoc](path)
	if err != nil {
		// Prefix lists are optional; a broken catalog degrades to empty.
		return PrefixListCatalog{}, nil
	}
	if loaded.PrefixLists == nil {
		return PrefixListCatalog{}, nil
	}
	return loaded.PrefixLists, nil
}

// ResolveAccountID determines the account id for an account directory.
// A 12-digit directory basename wins; otherwise the account_id field of the
// configuration document is used; otherwise ErrAccountIDUnresolvable.
func ResolveAccountID(accountDir string) (string, error) {
	abs, err := filepath.Abs(accountDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", accountDir, err)
	}

	base := filepath.Base(abs)
	if IsAccountID(base) {
		return base, nil
	}

	sgPath := filepath.Join(abs, SecurityGroupsFileName)
	if _, statErr := os.Stat(sgPath); statErr == nil {
		type accountDoc struct {
			AccountID string `yaml:"account_id"`
		}
		if doc, loadErr := serializer.FromFile[accountDoc](sgPath); loadErr == nil && doc.AccountID != "" {
			return doc.AccountID, nil
		}
	}

	return "", fmt.Errorf("%w from directory %q", ErrAccountIDUnresolvable, base)
}
