package graph

import (
	"github.com/gpmworks/gpm/pkg/errors"
)

// CommitForDependents returns the commit every direct dependent of n
// requests. ok is false when n has no dependents. Dependents requesting
// different commits produce an [errors.ConflictError]; a dependent without
// a commit is a missing-data error.
func (g *Graph) CommitForDependents(n *Node) (commit string, ok bool, err error) {
	var first string
	for _, dep := range g.DependentsOf(n) {
		d, err := dep.RequiredDependency(n.Name)
		if err != nil {
			return "", false, err
		}
		if d.Commit == "" {
			return "", false, errors.New(errors.ErrCodeMissingData,
				"missing commit property on dependency %s of %s", n.Name, dep.Name)
		}
		if first != "" && d.Commit != commit {
			return "", false, &errors.ConflictError{
				Package: n.Name, Property: "commit",
				First: first, FirstVal: commit,
				Other: dep.Name, OtherVal: d.Commit,
			}
		}
		first, commit = dep.Name, d.Commit
	}
	return commit, first != "", nil
}

// RepoAndBranchForDependents returns the repository URL and branch every
// direct dependent of n requests. Repo and branch are checked independently;
// either disagreement produces an [errors.ConflictError]. A dependent
// without repo or branch, or n having no dependents, is a missing-data
// error.
func (g *Graph) RepoAndBranchForDependents(n *Node) (repo, branch string, err error) {
	var first string
	for _, dep := range g.DependentsOf(n) {
		d, err := dep.RequiredDependency(n.Name)
		if err != nil {
			return "", "", err
		}
		if d.Branch == "" {
			return "", "", errors.New(errors.ErrCodeMissingData,
				"missing branch property on dependency %s of %s", n.Name, dep.Name)
		}
		if d.Repo == "" {
			return "", "", errors.New(errors.ErrCodeMissingData,
				"missing repo property on dependency %s of %s", n.Name, dep.Name)
		}
		if first != "" && d.Repo != repo {
			return "", "", &errors.ConflictError{
				Package: n.Name, Property: "repo",
				First: first, FirstVal: repo,
				Other: dep.Name, OtherVal: d.Repo,
			}
		}
		if first != "" && d.Branch != branch {
			return "", "", &errors.ConflictError{
				Package: n.Name, Property: "branch",
				First: first, FirstVal: branch,
				Other: dep.Name, OtherVal: d.Branch,
			}
		}
		first, repo, branch = dep.Name, d.Repo, d.Branch
	}
	if first == "" {
		return "", "", errors.New(errors.ErrCodeMissingData,
			"failed to determine repo and branch for dependents of package %s", n.Name)
	}
	return repo, branch, nil
}

// MarkRedundant recomputes the Redundant flag of every edge reachable from
// the root. An edge is redundant when its target is also reachable through
// another edge of the same origin.
func (g *Graph) MarkRedundant() {
	for _, n := range g.nodes {
		for _, d := range n.Dependencies {
			d.Redundant = false
		}
	}
	root := g.Root()
	if root == nil {
		return
	}

	done := make(map[string]bool)
	var mark func(*Node)
	mark = func(n *Node) {
		if done[n.Name] {
			return
		}
		done[n.Name] = true
		for _, d := range n.Dependencies {
			d.Redundant = g.HasDescendant(n, d.name, d)
			if t := g.Target(d); t != nil {
				mark(t)
			}
		}
	}
	mark(root)
}

// HasDescendant reports whether name is reachable from n, ignoring the edge
// exclude (which may be nil).
func (g *Graph) HasDescendant(n *Node, name string, exclude *Dependency) bool {
	seen := make(map[string]bool)
	var reach func(*Node, *Dependency) bool
	reach = func(from *Node, skip *Dependency) bool {
		for _, d := range from.Dependencies {
			if d == skip {
				continue
			}
			if d.name == name {
				return true
			}
			t := g.Target(d)
			if t == nil || seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			if reach(t, nil) {
				return true
			}
		}
		return false
	}
	return reach(n, exclude)
}

// Redundant returns the redundant edges of n as computed by the last
// [Graph.MarkRedundant].
func (n *Node) Redundant() []*Dependency {
	var out []*Dependency
	for _, d := range n.Dependencies {
		if d.Redundant {
			out = append(out, d)
		}
	}
	return out
}
