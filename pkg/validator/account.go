package validator

import (
	"fmt"
	"path/filepath"

	"github.com/sg-platform/sgctl/pkg/config"
	"github.com/sg-platform/sgctl/pkg/finding"
	"github.com/sg-platform/sgctl/pkg/policy"
)

func (v *Validator) checkAccountID(doc *config.Document, summary *finding.Summary) {
	if !doc.AccountID.Set {
		return
	}

	// Unquoted 12-digit ids parse as integers; compare their string form.
	accountID := fmt.Sprintf("%v", doc.AccountID.Data)

	if !policy.IsAccountID(accountID) {
		summary.Add(finding.Errorf("account_id_format", "",
			"account_id must be a 12-digit string, got '%s'", accountID))
	}

	dirName := filepath.Base(v.accountDir)
	if policy.IsAccountID(dirName) && accountID != dirName {
		summary.Add(finding.Warnf("account_id_consistency", "",
			"account_id '%s' doesn't match directory name '%s'", accountID, dirName))
	}
}
