package actions

import (
	"context"

	"github.com/gpmworks/gpm/pkg/graph"
)

// Adjust pins dependency edges to what is checked out. By default a
// package's own edges follow its dependencies' current branch and commit;
// with Dependents set, the edges pointing at the package follow it instead.
// Changed manifests are written and staged.
type Adjust struct {
	*Env
	Dependents bool
}

func (a Adjust) Name() string { return "adjust" }

func (a Adjust) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	if a.Dependents {
		return a.dependents(n, g)
	}
	return a.self(n, g)
}

func (a Adjust) self(n *graph.Node, g *graph.Graph) error {
	dirty := false
	for _, d := range n.Dependencies {
		t := g.Target(d)
		if t == nil || t.IsMissing() {
			a.Logger.Warn("cannot adjust to missing package", "package", n.Name, "dependency", d.Name())
			continue
		}
		branch, commit, err := a.head(t.Dir)
		if err != nil {
			return err
		}
		if branch == d.Branch && commit == d.Commit {
			continue
		}
		a.Logger.Info("adjusting", "package", n.Name, "dependency", d.Name(),
			"branch", branch, "commit", graph.ShortCommit(commit))
		d.Branch, d.Commit = branch, commit
		dirty = true
	}
	if !dirty {
		return nil
	}
	return a.write(n)
}

func (a Adjust) dependents(n *graph.Node, g *graph.Graph) error {
	branch, commit, err := a.head(n.Dir)
	if err != nil {
		return err
	}
	for _, dep := range g.DependentsOf(n) {
		d, err := dep.RequiredDependency(n.Name)
		if err != nil {
			return err
		}
		if branch == d.Branch && commit == d.Commit {
			continue
		}
		a.Logger.Info("adjusting", "package", dep.Name, "dependency", n.Name,
			"branch", branch, "commit", graph.ShortCommit(commit))
		d.Branch, d.Commit = branch, commit
		if err := a.write(dep); err != nil {
			return err
		}
	}
	return nil
}
