package discover

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ChangedAccounts discovers accounts with file changes relative to baseRef.
// The comparison uses origin/<baseRef>...HEAD and falls back to HEAD~1 when
// the base ref is unavailable. Each result carries a ChangeReason describing
// what kind of files changed.
func ChangedAccounts(ctx context.Context, repoRoot, baseRef string) ([]Account, error) {
	paths, err := changedFiles(ctx, repoRoot, baseRef)
	if err != nil {
		return nil, err
	}

	dirs := map[string]bool{}
	for _, p := range paths {
		parts := strings.Split(p, "/")
		if len(parts) >= 2 && parts[0] == "accounts" && parts[1] != "_example" {
			dirs[filepath.Join("accounts", parts[1])] = true
		}
	}

	var accounts []Account
	for dir := range dirs {
		account, ok := analyzeDirectory(repoRoot, filepath.Join(repoRoot, dir))
		if !ok {
			continue
		}
		account.ChangeReason = changeReason(dir, paths)
		accounts = append(accounts, account)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].AccountID < accounts[j].AccountID
	})
	return accounts, nil
}

func changedFiles(ctx context.Context, repoRoot, baseRef string) ([]string, error) {
	// Best effort, the diff below works against a stale ref too.
	fetch := exec.CommandContext(ctx, "git", "fetch", "origin", baseRef)
	fetch.Dir = repoRoot
	_ = fetch.Run()

	out, err := gitDiff(ctx, repoRoot, fmt.Sprintf("origin/%s...HEAD", baseRef))
	if err != nil {
		slog.Warn("base ref comparison failed, falling back to HEAD~1",
			"baseRef", baseRef, "error", err)
		out, err = gitDiff(ctx, repoRoot, "HEAD~1")
		if err != nil {
			return nil, fmt.Errorf("failed to determine changed files: %w", err)
		}
	}

	var paths []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

func gitDiff(ctx context.Context, repoRoot, ref string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--name-only", ref)
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func changeReason(accountDir string, changedPaths []string) string {
	reasons := map[string]bool{}
	for _, p := range changedPaths {
		if !strings.HasPrefix(p, accountDir) {
			continue
		}
		switch {
		case strings.HasSuffix(p, "security-groups.yaml"):
			reasons["security_groups_config"] = true
		case strings.HasSuffix(p, ".tf"):
			reasons["terraform_config"] = true
		case strings.Contains(p, "terraform/"):
			reasons["terraform_files"] = true
		default:
			reasons["other_files"] = true
		}
	}
	if len(reasons) == 0 {
		return "unknown"
	}
	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
