package perform

import (
	"context"
	"slices"

	"github.com/gpmworks/gpm/pkg/graph"
)

// Action is applied once to each package a walk selects. g is the graph
// the walk currently uses; with [Options.Reload] it is replaced between
// nodes, so actions must not cache nodes across calls.
type Action interface {
	Name() string
	Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error
}

// ActionFunc adapts a function to [Action].
type ActionFunc func(ctx context.Context, n *graph.Node, g *graph.Graph) error

func (f ActionFunc) Name() string { return "func" }

func (f ActionFunc) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	return f(ctx, n, g)
}

// Predicate decides whether a node takes part in a walk. Nodes failing the
// predicate are still descended into.
type Predicate func(n *graph.Node) bool

// All selects every node.
func All() Predicate {
	return func(*graph.Node) bool { return true }
}

// Names selects the named nodes.
func Names(names ...string) Predicate {
	return func(n *graph.Node) bool { return slices.Contains(names, n.Name) }
}

// Selected selects nodes flagged as part of the saved selection.
func Selected() Predicate {
	return func(n *graph.Node) bool { return n.Selected }
}
