package vcs

import (
	"context"
)

// Counts summarizes the working tree status of a repository.
type Counts struct {
	Modified   int // Unstaged changes, untracked files included
	Staged     int // Changes staged for commit
	Conflicted int // Unmerged paths
}

// Dirty reports whether there is anything to commit.
func (c Counts) Dirty() bool { return c.Modified > 0 || c.Staged > 0 }

// Client is the set of version-control primitives the workspace needs.
// dir is always the root of a package's repository.
type Client interface {
	CurrentBranch(dir string) (string, error)
	CurrentCommit(dir string) (string, error)

	Clone(ctx context.Context, url, dir, branch string) error
	Pull(ctx context.Context, dir string) error
	Push(ctx context.Context, dir string) error
	FetchBranch(ctx context.Context, dir, branch string) error

	// Checkout switches to a branch, tag or commit. With create a new
	// branch tracking origin is created from HEAD.
	Checkout(ctx context.Context, dir, ref string, create bool) error
	LocalBranches(dir string) ([]string, error)
	BranchExists(dir, branch string) (bool, error)
	DeleteBranch(ctx context.Context, dir, branch string, remote bool) error
	Tag(ctx context.Context, dir, name string) error

	AddAll(dir string) error
	Add(dir, path string) error
	Commit(dir, message string) error
	DiscardAll(ctx context.Context, dir string) error

	ChangeCounts(dir string) (Counts, error)
	PushableCommits(dir string) (int, error)
	IsMerging(dir string) bool
	FileConflicted(ctx context.Context, dir, path string) (bool, error)
	Merge(ctx context.Context, dir, branch string) error
	AbortMerge(ctx context.Context, dir string) error

	Origin(dir string) (string, error)
	GetConfig(dir, key string) (string, error)
	SetConfig(dir, key, value string) error

	StartFeature(ctx context.Context, dir, name string) error
	FinishFeature(ctx context.Context, dir, name string) error
	// Exec runs an arbitrary git command with the terminal attached.
	Exec(ctx context.Context, dir string, args ...string) error
}

// HasChanges reports whether dir has anything to commit, including a
// merge in progress.
func HasChanges(c Client, dir string) (bool, error) {
	counts, err := c.ChangeCounts(dir)
	if err != nil {
		return false, err
	}
	return counts.Dirty() || c.IsMerging(dir), nil
}
