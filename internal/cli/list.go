package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/links"
	"github.com/gpmworks/gpm/pkg/vcs"
)

type listOptions struct {
	branches  bool // Show every local branch
	redundant bool // Expand packages already shown elsewhere in the tree
}

func (c *CLI) listCommand() *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Display the package tree with branch and change markers",
		Long: `Display the dependency tree of the workspace.

Each package shows its checked out branch followed by markers:
  ` + iconPushable + `  commits to push      ` + iconStaged + `  staged changes
  ` + iconModified + `  unstaged changes     ` + iconConflicted + `  conflicts
  ` + iconMaterialized + `  materialized links   ` + iconMismatch + `  dependent expects another branch or commit`,
		GroupID: groupWorkspace,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open()
			if err != nil {
				return err
			}
			return s.printTree(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.branches, "branches", "b", false, "show all local branches")
	cmd.Flags().BoolVarP(&opts.redundant, "all", "a", false, "expand packages already listed")
	return cmd
}

func (s *session) printTree(ctx context.Context, opts listOptions) error {
	g, err := s.load(ctx)
	if err != nil {
		return err
	}
	root := g.Root()
	if root == nil {
		return nil
	}
	l := &lister{g: g, vcs: s.env.VCS, opts: opts, shown: make(map[string]bool)}
	t := l.node(root, nil).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(StyleDim)
	fmt.Fprintln(s.out, t.String())
	return nil
}

type lister struct {
	g     *graph.Graph
	vcs   vcs.Client
	opts  listOptions
	shown map[string]bool
}

// node renders n reached through edge, which is nil for the root.
func (l *lister) node(n *graph.Node, edge *graph.Dependency) *tree.Tree {
	already := l.shown[n.Name]
	t := tree.Root(l.text(n, edge, already))
	l.shown[n.Name] = true

	if already && len(n.Dependencies) > 0 && !l.opts.redundant {
		return t.Child(StyleDim.Render("..."))
	}
	for _, d := range n.Dependencies {
		if target := l.g.Target(d); target != nil {
			t.Child(l.node(target, d))
		}
	}
	return t
}

func (l *lister) text(n *graph.Node, edge *graph.Dependency, already bool) string {
	name := StylePackage.Render(n.Name)
	if n.Selected && !already {
		name = StyleSelected.Render(n.Name)
	}
	parts := []string{name}

	switch {
	case already:
	case n.IsMissing():
		parts = append(parts, StyleError.Render("missing"))
	default:
		parts = append(parts, l.status(n, edge)...)
	}
	if edge != nil && edge.Redundant {
		parts = append(parts, StyleWarning.Render("redundant"))
	}
	return strings.Join(parts, " ")
}

func (l *lister) status(n *graph.Node, edge *graph.Dependency) []string {
	branch, _ := l.vcs.CurrentBranch(n.Dir)
	parts := []string{l.branches(n, branch) + l.markers(n)}

	if edge != nil {
		switch commit, _ := l.vcs.CurrentCommit(n.Dir); {
		case edge.Branch != "" && branch != edge.Branch:
			parts = append(parts, StyleWarning.Render(iconMismatch+" "+edge.Branch))
		case edge.Commit != "" && commit != edge.Commit:
			parts = append(parts, StyleWarning.Render(iconMismatch+" "+graph.ShortCommit(edge.Commit)))
		}
	}
	if l.vcs.IsMerging(n.Dir) {
		parts = append(parts, StyleWarning.Render("merge"))
	}
	return parts
}

func (l *lister) branches(n *graph.Node, current string) string {
	if current == "" {
		current = StyleWarning.Render("none")
	}
	if !l.opts.branches {
		return StyleBranch.Render(current)
	}
	local, _ := l.vcs.LocalBranches(n.Dir)
	names := []string{StyleCurrentBranch.Render(current)}
	for _, b := range local {
		if b != current {
			names = append(names, StyleBranch.Render(b))
		}
	}
	return strings.Join(names, StyleDim.Render(", "))
}

func (l *lister) markers(n *graph.Node) string {
	var b strings.Builder
	add := func(icon string, count int) {
		if count > 0 {
			fmt.Fprintf(&b, " %s%d", icon, count)
		}
	}
	if pushable, err := l.vcs.PushableCommits(n.Dir); err == nil {
		add(StyleSuccess.Render(iconPushable), pushable)
	}
	if counts, err := l.vcs.ChangeCounts(n.Dir); err == nil {
		add(StyleSuccess.Render(iconStaged), counts.Staged)
		add(StyleWarning.Render(iconModified), counts.Modified)
		add(StyleError.Render(iconConflicted), counts.Conflicted)
	}
	if links.IsMaterialized(n) {
		b.WriteString(" " + StyleWarning.Render(iconMaterialized))
	}
	return b.String()
}

// packageNames lists the packages of g for prompts, in load order.
func packageNames(g *graph.Graph, excluding ...string) []string {
	var out []string
	for _, n := range g.Nodes() {
		if !slices.Contains(excluding, n.Name) {
			out = append(out, n.Name)
		}
	}
	return out
}
