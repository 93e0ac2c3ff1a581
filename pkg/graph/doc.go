// Package graph builds and checks the dependency graph of a workspace.
//
// # Arena
//
// A [Graph] owns every [Node] and indexes them by package name. A
// [Dependency] edge stores only the target's name; [Graph.Target] resolves
// it. Dependents are kept on the target as names, so the graph has no
// ownership cycles and two edges to the same package always resolve to the
// same node.
//
// # Building
//
// [Build] starts at a root node and resolves each dependency through a
// [Loader], depth-first in declaration order:
//
//	g, err := graph.Build(root, loader, graph.Options{Current: "app"})
//
// Packages without a manifest become [Missing] nodes that carry the
// repository URL of the edge that referenced them. A dependency chain that
// returns to a package still being resolved is a [CycleError].
//
// # Consistency
//
// The checks run on demand, over direct dependents only:
//
//   - [Graph.CommitForDependents]: all dependents request the same commit
//   - [Graph.RepoAndBranchForDependents]: all dependents request the same
//     repository and branch
//   - [Graph.MarkRedundant]: flag edges whose target is reachable through
//     another edge of the same origin
//
// Disagreements are reported as errors.ConflictError and are never
// resolved automatically.
//
// # Export
//
// [ToDOT] and [RenderSVG] draw the graph with Graphviz; [WriteJSON] emits a
// node-link document.
package graph
