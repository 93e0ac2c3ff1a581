package vcs

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gpmworks/gpm/pkg/errors"
)

// PostCommitHook pins dependents to the new commit after every commit made
// outside gpm.
const PostCommitHook = "#!/bin/sh\ngpm adjust -cd --no-list\n"

// InitRepo installs the post-commit hook and makes pulls merge.
func InitRepo(c Client, dir string) error {
	hooks := filepath.Join(dir, ".git", "hooks")
	if err := os.MkdirAll(hooks, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, err, "git hooks directory not usable: %s", hooks)
	}
	file := filepath.Join(hooks, "post-commit")
	if err := os.WriteFile(file, []byte(PostCommitHook), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, err, "failed to install %s", file)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(file, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, err, "failed to chmod %s", file)
	}
	return c.SetConfig(dir, "pull.rebase", "false")
}

// FlowConfig names the branches git-flow works with. Empty fields take
// the usual defaults.
type FlowConfig struct {
	Master  string
	Develop string
	User    string // Feature branches live under feature/<user>/
}

func (fc FlowConfig) withDefaults() FlowConfig {
	if fc.Master == "" {
		fc.Master = "master"
	}
	if fc.Develop == "" {
		fc.Develop = "develop"
	}
	if fc.User == "" {
		if u, err := user.Current(); err == nil {
			fc.User = u.Username
		}
	}
	return fc
}

// InitFlow configures git-flow in dir. Missing master or develop branches
// are fetched from origin; a failed fetch is logged and tolerated.
func InitFlow(ctx context.Context, c Client, logger *log.Logger, dir string, fc FlowConfig) error {
	fc = fc.withDefaults()
	for _, b := range []string{fc.Master, fc.Develop} {
		exists, err := c.BranchExists(dir, b)
		if err != nil || exists {
			continue
		}
		if err := c.FetchBranch(ctx, dir, b); err != nil {
			logger.Warn("git-flow will not be enabled, branch could not be fetched", "branch", b, "dir", dir)
		}
	}

	settings := [][2]string{
		{"branch.master.merge", "refs/heads/" + fc.Master},
		{"branch.develop.merge", "refs/heads/" + fc.Develop},
		{"gitflow.branch.master", fc.Master},
		{"gitflow.branch.develop", fc.Develop},
		{"gitflow.prefix.feature", "feature/" + fc.User + "/"},
		{"gitflow.prefix.release", "release/"},
		{"gitflow.prefix.hotfix", "hotfix/"},
		{"gitflow.prefix.support", "support/"},
		{"gitflow.prefix.versiontag", ""},
	}
	for _, kv := range settings {
		if err := c.SetConfig(dir, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// FeatureBranchName maps a feature to its branch using dir's git-flow
// prefix.
func FeatureBranchName(c Client, dir, feature string) (string, error) {
	prefix, err := c.GetConfig(dir, "gitflow.prefix.feature")
	if err != nil {
		return "", err
	}
	return prefix + feature, nil
}

// CurrentFeature returns the last path segment of the current branch, or
// "" when the branch has no slash.
func CurrentFeature(c Client, dir string) (string, error) {
	branch, err := c.CurrentBranch(dir)
	if err != nil {
		return "", err
	}
	i := strings.LastIndex(branch, "/")
	if i < 0 || i == len(branch)-1 {
		return "", nil
	}
	return branch[i+1:], nil
}
