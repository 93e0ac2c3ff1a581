package graph

import (
	"slices"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/manifest"
)

// Loader resolves package names to manifests.
type Loader interface {
	// Load returns the manifest of the named package, or (nil, nil) when the
	// package is not present in the workspace.
	Load(name string) (*manifest.Manifest, error)
	// PackageDir returns the directory the named package lives (or would
	// live) in.
	PackageDir(name string) string
}

// Options configures a build.
type Options struct {
	Selected []string // Names flagged as Selected
	Current  string   // Package containing the working directory
}

// Build walks the dependencies of root depth-first in declaration order and
// returns the resulting graph. Each package is loaded once; edges to a
// package already in the graph link to the existing node. Packages without
// a manifest become Missing nodes carrying the edge's repository URL.
//
// A dependency chain leading back to a package still being resolved fails
// with a [CycleError].
func Build(root *Node, loader Loader, opts Options) (*Graph, error) {
	b := &builder{
		g:      New(),
		loader: loader,
		color:  make(map[string]int),
	}
	if err := b.add(root, opts); err != nil {
		return nil, err
	}
	if err := b.visit(root, opts); err != nil {
		return nil, err
	}
	if _, ok := b.g.nodes[opts.Current]; ok {
		b.g.current = opts.Current
	}
	return b.g, nil
}

const (
	white = iota
	gray
	black
)

type builder struct {
	g      *Graph
	loader Loader
	color  map[string]int
	stack  []string
}

func (b *builder) add(n *Node, opts Options) error {
	n.Selected = slices.Contains(opts.Selected, n.Name)
	n.dependents = nil
	return b.g.Add(n)
}

func (b *builder) visit(n *Node, opts Options) error {
	if n.IsMissing() {
		return nil
	}
	b.color[n.Name] = gray
	b.stack = append(b.stack, n.Name)

	for _, d := range n.Dependencies {
		if target, seen := b.g.nodes[d.name]; seen {
			target.dependents = append(target.dependents, n.Name)
			if b.color[target.Name] == gray {
				return b.cycle(target.Name)
			}
			continue
		}

		target, err := b.resolve(d)
		if err != nil {
			return err
		}
		// add resets dependents, so the edge is recorded afterwards.
		if err := b.add(target, opts); err != nil {
			return err
		}
		target.dependents = append(target.dependents, n.Name)
		if err := b.visit(target, opts); err != nil {
			return err
		}
	}

	b.stack = b.stack[:len(b.stack)-1]
	b.color[n.Name] = black
	return nil
}

func (b *builder) resolve(d *Dependency) (*Node, error) {
	m, err := b.loader.Load(d.name)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return NewMissing(d.name, d.Repo, b.loader.PackageDir(d.name)), nil
	}
	if m.Name != d.name {
		return nil, errors.New(errors.ErrCodeInvalidPackage,
			"manifest for %s found in directory %s", d.name, m.Dir)
	}
	return NewNode(m)
}

func (b *builder) cycle(to string) error {
	start := slices.Index(b.stack, to)
	path := append(slices.Clone(b.stack[start:]), to)
	return &CycleError{Path: path}
}
