package graph

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestToDOT(t *testing.T) {
	l := newMemLoader()
	diamond(l)
	l.manifests["a"].Dependencies = append(l.manifests["a"].Dependencies,
		dep("d", "master", "0123456789abcdef"), dep("ghost", "", ""))
	g := l.build(t, "a", Options{})
	g.MarkRedundant()

	tests := []struct {
		name     string
		opts     DOTOptions
		contains []string
		excludes []string
	}{
		{
			name: "simple",
			contains: []string{
				"digraph G {",
				`"a" -> "b";`,
				`"a" -> "d" [style=dotted];`,
				`"ghost" [label="ghost", style="rounded,filled,dashed", fillcolor=lightgrey];`,
			},
			excludes: []string{"fontsize=10"},
		},
		{
			name: "detailed",
			opts: DOTOptions{Detailed: true},
			contains: []string{
				`"a" -> "b" [label="master b1", fontsize=10];`,
				`"a" -> "d" [style=dotted, label="master 01234567", fontsize=10];`,
				`"a" -> "ghost";`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dot := ToDOT(g, tt.opts)
			for _, s := range tt.contains {
				if !strings.Contains(dot, s) {
					t.Errorf("DOT missing %q\n%s", s, dot)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(dot, s) {
					t.Errorf("DOT should not contain %q", s)
				}
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	l := newMemLoader()
	l.add("app", dep("lib", "master", "abc"))
	g := l.build(t, "app", Options{Selected: []string{"lib"}})

	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		t.Fatalf("WriteJSON(): %v", err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Root != "app" || len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
	lib := doc.Nodes[1]
	if lib.ID != "lib" || lib.Kind != "missing" || !lib.Selected || lib.Repo != "https://h/org/lib.git" {
		t.Errorf("lib node = %+v", lib)
	}
	if e := doc.Edges[0]; e.From != "app" || e.To != "lib" || e.Commit != "abc" {
		t.Errorf("edge = %+v", e)
	}
}

func TestShortCommit(t *testing.T) {
	for in, want := range map[string]string{
		"":                 "",
		"abc":              "abc",
		"0123456789abcdef": "01234567",
	} {
		if got := ShortCommit(in); got != want {
			t.Errorf("ShortCommit(%q) = %q, want %q", in, got, want)
		}
	}
}
