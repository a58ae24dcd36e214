package validator

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/sg-platform/sgctl/pkg/config"
	"github.com/sg-platform/sgctl/pkg/finding"
	"github.com/sg-platform/sgctl/pkg/policy"
)

// Validator checks one account directory against the loaded guardrails
// and prefix-list catalog. Construct with New; the policy documents are
// read once and stay fixed for the validator's lifetime.
type Validator struct {
	accountDir  string
	repoRoot    string
	guardrails  *policy.Guardrails
	prefixLists policy.PrefixListCatalog
	accountID   string
	namePattern *regexp.Regexp
}

// Option represents a validator option.
type Option func(*Validator)

// WithGuardrails overrides the guardrails loaded from the repository root.
func WithGuardrails(g *policy.Guardrails) Option {
	return func(v *Validator) {
		if g != nil {
			v.guardrails = g
		}
	}
}

// WithPrefixLists overrides the prefix-list catalog loaded from the
// repository root.
func WithPrefixLists(c policy.PrefixListCatalog) Option {
	return func(v *Validator) {
		if c != nil {
			v.prefixLists = c
		}
	}
}

// New creates a validator for the given account directory. It locates the
// repository root, loads the guardrails and prefix-list documents, and
// resolves the account id. A missing guardrails document is fatal.
func New(accountDir string, opts ...Option) (*Validator, error) {
	abs, err := filepath.Abs(accountDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account directory %q: %w", accountDir, err)
	}

	root, err := policy.FindRepoRoot(abs)
	if err != nil {
		return nil, err
	}

	guardrails, err := policy.LoadGuardrails(root)
	if err != nil {
		return nil, err
	}

	prefixLists, err := policy.LoadPrefixLists(root)
	if err != nil {
		return nil, err
	}

	accountID, err := policy.ResolveAccountID(abs)
	if err != nil {
		return nil, err
	}

	v := &Validator{
		accountDir:  abs,
		repoRoot:    root,
		guardrails:  guardrails,
		prefixLists: prefixLists,
		accountID:   accountID,
	}

	for _, opt := range opts {
		opt(v)
	}

	pattern, err := regexp.Compile(v.guardrails.NamingPattern)
	if err != nil {
		slog.Warn("invalid naming pattern in guardrails, using default",
			"pattern", v.guardrails.NamingPattern, "error", err)
		pattern = regexp.MustCompile(policy.DefaultGuardrails().NamingPattern)
	}
	v.namePattern = pattern

	return v, nil
}

// AccountID returns the resolved 12-digit account id.
func (v *Validator) AccountID() string {
	return v.accountID
}

// AccountDir returns the absolute account directory path.
func (v *Validator) AccountDir() string {
	return v.accountDir
}

// RepoRoot returns the repository root containing the guardrails document.
func (v *Validator) RepoRoot() string {
	return v.repoRoot
}

// Validate loads the account's security-groups document and runs every
// check against it. All findings accumulate into one summary; a document
// that cannot be parsed short-circuits with a single fatal finding.
func (v *Validator) Validate() *finding.Summary {
	summary := finding.NewSummary()

	sgFile := filepath.Join(v.accountDir, policy.SecurityGroupsFileName)
	if _, err := os.Stat(sgFile); err != nil {
		summary.Add(finding.Errorf("file_exists", "",
			"❌ security-groups.yaml not found in %s — this file is required to define security groups for the account.\n   → Create security-groups.yaml with your security group definitions.",
			v.accountDir))
		return summary
	}

	doc, err := config.LoadDocument(sgFile)
	if err != nil {
		var le *config.LoadError
		if errors.As(err, &le) {
			summary.Add(finding.Errorf(le.Rule, "", "%s", le.Message))
		} else {
			summary.Add(finding.Errorf("yaml_syntax", "", "failed to load security-groups.yaml: %v", err))
		}
		return summary
	}

	v.checkSchema(doc, summary)
	v.checkAccountID(doc, summary)
	v.checkBaselineProfiles(doc, summary)
	v.checkSecurityGroups(doc, summary)
	v.checkTypeOverrides(doc, summary)
	v.checkNaming(doc, summary)
	v.checkPrefixListReferences(doc, summary)
	v.checkASCII(doc, summary)

	return summary
}

// groups returns the parsed security-group entries in document order, or
// nil when the field is absent or of the wrong shape.
func (v *Validator) groups(doc *config.Document) []config.GroupEntry {
	entries, ok := doc.SecurityGroups.Data.([]config.GroupEntry)
	if !ok {
		return nil
	}
	return entries
}
