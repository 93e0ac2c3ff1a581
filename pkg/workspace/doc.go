// Package workspace locates a gpm workspace and loads its dependency graph.
//
// A workspace is a directory with a gpm.yaml file and one checkout per
// package next to it. The configuration names the main package, the root of
// every graph, and the saved package selection.
package workspace
