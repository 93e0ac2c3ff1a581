package graph

import (
	"slices"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/manifest"
)

// Kind distinguishes packages found on disk from packages only known by
// reference.
type Kind int

const (
	Present Kind = iota // Manifest found in the workspace
	Missing             // Referenced by a dependent but not cloned yet
)

func (k Kind) String() string {
	if k == Missing {
		return "missing"
	}
	return "present"
}

// Dependency is a directed, pinned edge from its origin node to the package
// named by its repository URL. The edge stores the target's name; resolve
// it with [Graph.Target].
type Dependency struct {
	Repo      string
	Branch    string
	Commit    string
	Redundant bool // Target also reachable through another edge of the origin

	name string
}

// Name returns the name of the target package.
func (d *Dependency) Name() string { return d.name }

func newDependency(d manifest.Dependency) (*Dependency, error) {
	name, err := manifest.NameFromRepoURL(d.Repo)
	if err != nil {
		return nil, err
	}
	return &Dependency{Repo: d.Repo, Branch: d.Branch, Commit: d.Commit, name: name}, nil
}

// Node is one package of the workspace.
type Node struct {
	Name       string
	Dir        string
	File       string // Manifest file; empty for Missing nodes
	Repo       string // Clone URL when known (Missing nodes, configured main package)
	Kind       Kind
	Conflicted bool
	Selected   bool

	Links        *manifest.Links
	Dependencies []*Dependency

	dependents []string
}

// NewNode creates a Present node from a manifest read from disk.
func NewNode(m *manifest.Manifest) (*Node, error) {
	n := &Node{
		Name:       m.Name,
		Dir:        m.Dir,
		File:       m.File,
		Kind:       Present,
		Conflicted: m.Conflicted,
		Links:      m.Links,
	}
	for _, md := range m.Dependencies {
		d, err := newDependency(md)
		if err != nil {
			return nil, err
		}
		n.Dependencies = append(n.Dependencies, d)
	}
	return n, nil
}

// NewMissing creates a placeholder for a package that is referenced but has
// no manifest in the workspace. repo is kept so the package can be cloned.
func NewMissing(name, repo, dir string) *Node {
	return &Node{Name: name, Dir: dir, Repo: repo, Kind: Missing}
}

// IsMissing reports whether n is a placeholder.
func (n *Node) IsMissing() bool { return n.Kind == Missing }

// Dependents returns the names of the packages that depend directly on n,
// in discovery order.
func (n *Node) Dependents() []string { return slices.Clone(n.dependents) }

// FindDependency returns n's edge to the package name, or nil.
func (n *Node) FindDependency(name string) *Dependency {
	for _, d := range n.Dependencies {
		if d.name == name {
			return d
		}
	}
	return nil
}

// RequiredDependency is like FindDependency but fails when there is no edge.
func (n *Node) RequiredDependency(name string) (*Dependency, error) {
	d := n.FindDependency(name)
	if d == nil {
		return nil, errors.New(errors.ErrCodeMissingData, "missing required dependency %s in %s", name, n.Name)
	}
	return d, nil
}

// AddDependency appends an edge to the package at repo. The graph is not
// relinked; write the manifest and reload to observe the new edge.
func (n *Node) AddDependency(repo, branch, commit string) (*Dependency, error) {
	d, err := newDependency(manifest.Dependency{Repo: repo, Branch: branch, Commit: commit})
	if err != nil {
		return nil, err
	}
	if d.name == n.Name {
		return nil, errors.New(errors.ErrCodeInvalidInput, "package %s cannot depend on itself", n.Name)
	}
	if n.FindDependency(d.name) != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s already depends on %s", n.Name, d.name)
	}
	n.Dependencies = append(n.Dependencies, d)
	return d, nil
}

// RemoveDependency deletes the edge to name and reports whether it existed.
func (n *Node) RemoveDependency(name string) bool {
	i := slices.IndexFunc(n.Dependencies, func(d *Dependency) bool { return d.name == name })
	if i < 0 {
		return false
	}
	n.Dependencies = slices.Delete(n.Dependencies, i, i+1)
	return true
}

// Manifest converts n back to its on-disk form.
func (n *Node) Manifest() *manifest.Manifest {
	m := &manifest.Manifest{
		File:       n.File,
		Dir:        n.Dir,
		Name:       n.Name,
		Conflicted: n.Conflicted,
		Links:      n.Links,
	}
	for _, d := range n.Dependencies {
		m.Dependencies = append(m.Dependencies, manifest.Dependency{Repo: d.Repo, Branch: d.Branch, Commit: d.Commit})
	}
	return m
}
