package graph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures DOT rendering.
type DOTOptions struct {
	// Detailed adds branch and short commit of each edge as edge labels.
	Detailed bool
}

// ToDOT converts the graph to Graphviz DOT format. Missing packages are
// drawn dashed, redundant edges dotted and conflicted packages in red.
// Call [Graph.MarkRedundant] first for redundant edges to show.
func ToDOT(g *Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Name, strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, n := range g.Nodes() {
		for _, d := range n.Dependencies {
			attrs := edgeAttrs(d, opts.Detailed)
			if len(attrs) == 0 {
				fmt.Fprintf(&buf, "  %q -> %q;\n", n.Name, d.name)
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", n.Name, d.name, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *Node) []string {
	attrs := []string{fmt.Sprintf("label=%q", n.Name)}
	switch {
	case n.IsMissing():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case n.Conflicted:
		attrs = append(attrs, "color=red", "fontcolor=red")
	}
	return attrs
}

func edgeAttrs(d *Dependency, detailed bool) []string {
	var attrs []string
	if d.Redundant {
		attrs = append(attrs, "style=dotted")
	}
	if detailed {
		var parts []string
		if d.Branch != "" {
			parts = append(parts, d.Branch)
		}
		if d.Commit != "" {
			parts = append(parts, ShortCommit(d.Commit))
		}
		if len(parts) > 0 {
			attrs = append(attrs, fmt.Sprintf("label=%q", strings.Join(parts, " ")), "fontsize=10")
		}
	}
	return attrs
}

// ShortCommit abbreviates a commit hash to 8 characters.
func ShortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
