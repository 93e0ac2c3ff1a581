package vcs

import (
	"github.com/go-git/go-git/v5"
)

// unmerged lists the XY porcelain pairs git reports for conflicted paths.
var unmerged = [][2]git.StatusCode{
	{git.Deleted, git.Deleted},
	{git.Added, git.UpdatedButUnmerged},
	{git.UpdatedButUnmerged, git.Deleted},
	{git.UpdatedButUnmerged, git.Added},
	{git.Deleted, git.UpdatedButUnmerged},
	{git.Added, git.Added},
	{git.UpdatedButUnmerged, git.UpdatedButUnmerged},
}

func isConflicted(x, y git.StatusCode) bool {
	for _, p := range unmerged {
		if p[0] == x && p[1] == y {
			return true
		}
	}
	return false
}

func isChange(c git.StatusCode) bool {
	switch c {
	case git.Added, git.Copied, git.Deleted, git.Modified, git.Renamed, git.UpdatedButUnmerged:
		return true
	}
	return false
}

// countStatus tallies a worktree status. Conflicted paths count only as
// conflicted; a path with staged and unstaged changes counts as modified.
func countStatus(st git.Status) Counts {
	var c Counts
	for _, fs := range st {
		x, y := fs.Staging, fs.Worktree
		switch {
		case isConflicted(x, y):
			c.Conflicted++
		case y == git.Untracked || isChange(y):
			c.Modified++
		case isChange(x) && y == git.Unmodified:
			c.Staged++
		}
	}
	return c
}

// conflictCode parses the first two bytes of a porcelain v1 line.
func conflictCode(line string) bool {
	if len(line) < 2 {
		return false
	}
	return isConflicted(git.StatusCode(line[0]), git.StatusCode(line[1]))
}
