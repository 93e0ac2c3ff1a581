package graph_test

import (
	"fmt"

	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/manifest"
)

type mapLoader map[string]*manifest.Manifest

func (l mapLoader) Load(name string) (*manifest.Manifest, error) { return l[name], nil }
func (l mapLoader) PackageDir(name string) string                { return "/ws/" + name }

func repo(name string) string { return "https://example.com/org/" + name + ".git" }

func ExampleBuild() {
	loader := mapLoader{
		"lib": {Name: "lib", Dir: "/ws/lib", Dependencies: []manifest.Dependency{
			{Repo: repo("core"), Branch: "master"},
		}},
	}
	root, _ := graph.NewNode(&manifest.Manifest{
		Name: "app",
		Dir:  "/ws/app",
		Dependencies: []manifest.Dependency{
			{Repo: repo("lib"), Branch: "master"},
			{Repo: repo("core"), Branch: "master"},
		},
	})

	g, err := graph.Build(root, loader, graph.Options{})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	g.MarkRedundant()

	for _, n := range g.Nodes() {
		fmt.Printf("%s (%s) dependents=%v\n", n.Name, n.Kind, n.Dependents())
		for _, d := range n.Redundant() {
			fmt.Printf("  redundant: %s\n", d.Name())
		}
	}
	// Output:
	// app (present) dependents=[]
	//   redundant: core
	// lib (present) dependents=[app]
	// core (missing) dependents=[lib app]
}
