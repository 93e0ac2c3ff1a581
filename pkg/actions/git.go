package actions

import (
	"context"

	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/vcs"
)

// Stage stages every change of a package.
type Stage struct{ *Env }

func (Stage) Name() string { return "stage" }

func (a Stage) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	return a.VCS.AddAll(n.Dir)
}

// Commit commits a package's changes and pins its dependents to the new
// commit, so that committing bottom-up leaves every manifest up to date.
// Unchanged packages are skipped.
type Commit struct {
	*Env
	Message    string
	StagedOnly bool
}

func (Commit) Name() string { return "commit" }

func (a Commit) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	dirty, err := vcs.HasChanges(a.VCS, n.Dir)
	if err != nil {
		return err
	}
	if !dirty {
		a.Logger.Info("skipping unchanged", "package", n.Name)
		return nil
	}
	if !a.StagedOnly {
		if err := a.VCS.AddAll(n.Dir); err != nil {
			return err
		}
	}
	a.Logger.Info("committing", "package", n.Name)
	if err := a.VCS.Commit(n.Dir, a.Message); err != nil {
		return err
	}
	return Adjust{Env: a.Env, Dependents: true}.Apply(ctx, n, g)
}

// Push pushes a package's current branch.
type Push struct{ *Env }

func (Push) Name() string { return "push" }

func (a Push) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	a.Logger.Info("pushing", "package", n.Name)
	return a.VCS.Push(ctx, n.Dir)
}

// Pull pulls a package's current branch.
type Pull struct{ *Env }

func (Pull) Name() string { return "pull" }

func (a Pull) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	a.Logger.Info("pulling", "package", n.Name)
	return a.VCS.Pull(ctx, n.Dir)
}

// Tag creates and pushes a tag.
type Tag struct {
	*Env
	Tag string
}

func (Tag) Name() string { return "tag" }

func (a Tag) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	a.Logger.Info("tagging", "package", n.Name, "tag", a.Tag)
	return a.VCS.Tag(ctx, n.Dir, a.Tag)
}

// DeleteBranch deletes a local branch and optionally its remote
// counterpart. Packages without the local branch are skipped, but the
// remote branch is still deleted when asked.
type DeleteBranch struct {
	*Env
	Branch  string
	Feature Feature
	Remote  bool
}

func (DeleteBranch) Name() string { return "delete" }

func (a DeleteBranch) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	branch, err := a.Feature.Branch(a.Env, n, a.Branch)
	if err != nil {
		return err
	}
	exists, err := a.VCS.BranchExists(n.Dir, branch)
	if err != nil {
		return err
	}
	if exists {
		a.Logger.Info("deleting local branch", "package", n.Name, "branch", branch)
		if err := a.VCS.DeleteBranch(ctx, n.Dir, branch, false); err != nil {
			return err
		}
	} else {
		a.Logger.Info("skipping non-existing local branch", "package", n.Name, "branch", branch)
	}
	if !a.Remote {
		return nil
	}
	a.Logger.Info("deleting remote branch", "package", n.Name, "branch", branch)
	return a.VCS.DeleteBranch(ctx, n.Dir, branch, true)
}

// Discard throws away every local change.
type Discard struct{ *Env }

func (Discard) Name() string { return "discard" }

func (a Discard) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	a.Logger.Info("discarding local changes", "package", n.Name)
	return a.VCS.DiscardAll(ctx, n.Dir)
}

// Exec runs a git command in each package.
type Exec struct {
	*Env
	Args []string
}

func (Exec) Name() string { return "git" }

func (a Exec) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	return a.VCS.Exec(ctx, n.Dir, a.Args...)
}
