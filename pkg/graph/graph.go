package graph

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/gpmworks/gpm/pkg/errors"
)

var (
	// ErrDuplicateNode is returned by [Graph.Add] when a node with the same
	// name is already registered.
	ErrDuplicateNode = stderrors.New("duplicate package name")

	// ErrDependencyCycle is matched by every [CycleError].
	ErrDependencyCycle = stderrors.New("dependency cycle")
)

// CycleError reports a chain of dependencies that leads back to its start.
type CycleError struct {
	Path []string // First and last element are the same package
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// Code returns the error code for this error type.
func (e *CycleError) Code() errors.Code { return errors.ErrCodeCycle }

// Is matches [ErrDependencyCycle].
func (e *CycleError) Is(target error) bool { return target == ErrDependencyCycle }

// Graph is an arena of package nodes keyed by name. Edges reference their
// targets by name, so a graph never holds two nodes for the same package.
//
// The zero value is not usable; use [New] or [Build].
type Graph struct {
	nodes   map[string]*Node
	order   []string
	root    string
	current string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Add registers n. The first node added becomes the root.
func (g *Graph) Add(n *Node) error {
	if _, exists := g.nodes[n.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.Name)
	}
	g.nodes[n.Name] = n
	g.order = append(g.order, n.Name)
	if g.root == "" {
		g.root = n.Name
	}
	return nil
}

// Root returns the node the graph was built from.
func (g *Graph) Root() *Node { return g.nodes[g.root] }

// Current returns the package containing the working directory, or nil.
func (g *Graph) Current() *Node {
	if g.current == "" {
		return nil
	}
	return g.nodes[g.current]
}

// RequiredCurrent is like Current but fails when the working directory is
// not inside a package of this graph.
func (g *Graph) RequiredCurrent() (*Node, error) {
	if n := g.Current(); n != nil {
		return n, nil
	}
	return nil, errors.New(errors.ErrCodeMissingData, "no package found for current directory")
}

// Node looks up a package by name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Required looks up a package by name and fails when it is not in the graph.
func (g *Graph) Required(name string) (*Node, error) {
	if n, ok := g.nodes[name]; ok {
		return n, nil
	}
	return nil, errors.New(errors.ErrCodeNotFound, "required package not found: %s", name)
}

// Nodes returns all nodes in discovery order, root first.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, name := range g.order {
		out[i] = g.nodes[name]
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Selection returns the selected nodes in discovery order.
func (g *Graph) Selection() []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if n.Selected {
			out = append(out, n)
		}
	}
	return out
}

// Target resolves the node an edge points to. It returns nil only for
// edges created after the graph was built.
func (g *Graph) Target(d *Dependency) *Node { return g.nodes[d.name] }

// DependenciesOf returns the resolved targets of n's edges in declaration
// order.
func (g *Graph) DependenciesOf(n *Node) []*Node {
	out := make([]*Node, 0, len(n.Dependencies))
	for _, d := range n.Dependencies {
		if t := g.Target(d); t != nil {
			out = append(out, t)
		}
	}
	return out
}

// DependentsOf returns the nodes that depend directly on n.
func (g *Graph) DependentsOf(n *Node) []*Node {
	out := make([]*Node, 0, len(n.dependents))
	for _, name := range n.dependents {
		if d, ok := g.nodes[name]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Transitive returns every package reachable from n through its edges,
// depth-first in declaration order, without n itself.
func (g *Graph) Transitive(n *Node) []*Node {
	seen := map[string]bool{n.Name: true}
	var out []*Node
	var visit func(*Node)
	visit = func(from *Node) {
		for _, t := range g.DependenciesOf(from) {
			if seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			out = append(out, t)
			visit(t)
		}
	}
	visit(n)
	return out
}
