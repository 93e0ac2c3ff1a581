package actions

import (
	"context"
	"os"

	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/vcs"
)

// Update brings a package up to date: it is pulled when checked out and
// cloned otherwise, then git-flow and the post-commit hook are set up. Run
// it with Missing nodes included and the graph reloaded, so that packages
// cloned along the way contribute their own dependencies to the walk.
type Update struct {
	*Env
	Flow vcs.FlowConfig
}

func (u Update) Name() string { return "update" }

func (u Update) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	repo, branch, err := u.source(n, g)
	if err != nil {
		return err
	}
	if err := u.pullOrClone(ctx, n, repo, branch); err != nil {
		return err
	}
	if err := vcs.InitFlow(ctx, u.VCS, u.Logger, n.Dir, u.Flow); err != nil {
		return err
	}
	return vcs.InitRepo(u.VCS, n.Dir)
}

// source returns where n comes from. The main package is configured in the
// workspace; a checked-out main package keeps its current branch. Every
// other package comes from what its dependents agree on.
func (u Update) source(n *graph.Node, g *graph.Graph) (repo, branch string, err error) {
	main, err := u.Workspace.MainName()
	if err != nil {
		return "", "", err
	}
	if n.Name != main {
		return g.RepoAndBranchForDependents(n)
	}
	if repo, err = u.Workspace.MainRepo(); err != nil {
		return "", "", err
	}
	if n.IsMissing() {
		if branch, err = u.Workspace.MainBranch(); err != nil {
			return "", "", err
		}
	}
	return repo, branch, nil
}

func (u Update) pullOrClone(ctx context.Context, n *graph.Node, repo, branch string) error {
	if _, err := os.Stat(n.Dir); err != nil {
		u.Logger.Info("cloning", "package", n.Name, "repo", repo, "branch", branch)
		return u.VCS.Clone(ctx, repo, n.Dir, branch)
	}
	u.Logger.Info("pulling", "package", n.Name)
	if err := u.VCS.Pull(ctx, n.Dir); err != nil {
		return err
	}
	if branch == "" {
		return nil
	}
	return u.VCS.Checkout(ctx, n.Dir, branch, false)
}
