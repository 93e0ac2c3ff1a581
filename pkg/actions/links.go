package actions

import (
	"context"

	"github.com/gpmworks/gpm/pkg/graph"
)

// Link recreates a package's links.
type Link struct{ *Env }

func (Link) Name() string { return "link" }

func (a Link) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	return a.Links.Create(ctx, n, g)
}

// Unlink removes a package's imported links.
type Unlink struct{ *Env }

func (Unlink) Name() string { return "unlink" }

func (a Unlink) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	return a.Links.Delete(n)
}

// Materialize replaces a package's links with editable copies. Only ever
// run it on a single package, so that one dependency never has two
// diverging copies.
type Materialize struct{ *Env }

func (Materialize) Name() string { return "materialize" }

func (a Materialize) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	return a.Links.Materialize(ctx, n, g)
}

// Dematerialize copies edits back to the dependencies and relinks.
type Dematerialize struct{ *Env }

func (Dematerialize) Name() string { return "dematerialize" }

func (a Dematerialize) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	return a.Links.Dematerialize(ctx, n, g)
}
