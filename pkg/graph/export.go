package graph

import (
	"encoding/json"
	"fmt"
	"io"
)

// Document is the node-link JSON form of a graph, used by `gpm graph
// --format json` for consumption by other tools.
type Document struct {
	Root  string         `json:"root"`
	Nodes []DocumentNode `json:"nodes"`
	Edges []DocumentEdge `json:"edges"`
}

// DocumentNode is one package in a [Document].
type DocumentNode struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Dir        string `json:"dir,omitempty"`
	Repo       string `json:"repo,omitempty"`
	Selected   bool   `json:"selected,omitempty"`
	Conflicted bool   `json:"conflicted,omitempty"`
}

// DocumentEdge is one dependency in a [Document].
type DocumentEdge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Repo      string `json:"repo"`
	Branch    string `json:"branch,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Redundant bool   `json:"redundant,omitempty"`
}

// Export converts the graph to its serialization form. Nodes keep
// discovery order and edges keep declaration order.
func Export(g *Graph) Document {
	doc := Document{Nodes: []DocumentNode{}, Edges: []DocumentEdge{}}
	if r := g.Root(); r != nil {
		doc.Root = r.Name
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, DocumentNode{
			ID:         n.Name,
			Kind:       n.Kind.String(),
			Dir:        n.Dir,
			Repo:       n.Repo,
			Selected:   n.Selected,
			Conflicted: n.Conflicted,
		})
		for _, d := range n.Dependencies {
			doc.Edges = append(doc.Edges, DocumentEdge{
				From:      n.Name,
				To:        d.name,
				Repo:      d.Repo,
				Branch:    d.Branch,
				Commit:    d.Commit,
				Redundant: d.Redundant,
			})
		}
	}
	return doc
}

// WriteJSON writes the graph as indented JSON.
func WriteJSON(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Export(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
