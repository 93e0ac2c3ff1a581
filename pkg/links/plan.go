package links

import (
	"path/filepath"

	"github.com/gpmworks/gpm/pkg/graph"
)

// Link is one symlink to create: Target will point at Source.
type Link struct {
	SourcePkg string
	Source    string
	TargetPkg string
	Target    string

	// IgnoreDir's ignore file gets IgnoreEntry appended when the link is
	// created. For named sub-exports this is one level above the link, so
	// the per-dependency directory is ignored as a whole.
	IgnoreDir   string
	IgnoreEntry string

	sourceDir, targetDir string
}

// String renders the link relative to the two package directories, e.g.
// "app/lib/core -> core/src".
func (l Link) String() string {
	return l.TargetPkg + rel(l.targetDir, l.Target) + " -> " + l.SourcePkg + rel(l.sourceDir, l.Source)
}

func rel(base, path string) string {
	r, err := filepath.Rel(base, path)
	if err != nil || r == "." {
		return ""
	}
	return "/" + filepath.ToSlash(r)
}

// Plan lists the links n needs: internal links first, then one link per
// export of every package n depends on, directly or transitively. Each
// dependency contributes once even when reachable along several paths.
func Plan(n *graph.Node, g *graph.Graph) []Link {
	if n.Links == nil {
		return nil
	}
	var out []Link
	for _, in := range n.Links.Internals {
		target := filepath.Join(n.Dir, in.Target)
		out = append(out, Link{
			SourcePkg:   n.Name,
			Source:      filepath.Join(n.Dir, in.Source),
			TargetPkg:   n.Name,
			Target:      target,
			IgnoreDir:   filepath.Dir(target),
			IgnoreEntry: filepath.Base(target),
			sourceDir:   n.Dir,
			targetDir:   n.Dir,
		})
	}

	if n.Links.Imports == "" || len(n.Dependencies) == 0 {
		return out
	}
	imports := filepath.Join(n.Dir, n.Links.Imports)
	for _, dep := range g.Transitive(n) {
		if dep.Links == nil || dep.Links.Exports.IsZero() {
			continue
		}
		exports := dep.Links.Exports
		if !exports.IsNamed() {
			target := filepath.Join(imports, dep.Name)
			out = append(out, Link{
				SourcePkg:   dep.Name,
				Source:      filepath.Join(dep.Dir, exports.Path),
				TargetPkg:   n.Name,
				Target:      target,
				IgnoreDir:   imports,
				IgnoreEntry: dep.Name,
				sourceDir:   dep.Dir,
				targetDir:   n.Dir,
			})
			continue
		}
		for _, ne := range exports.Named {
			out = append(out, Link{
				SourcePkg:   dep.Name,
				Source:      filepath.Join(dep.Dir, ne.Path),
				TargetPkg:   n.Name,
				Target:      filepath.Join(imports, dep.Name, ne.Name),
				IgnoreDir:   imports,
				IgnoreEntry: dep.Name,
				sourceDir:   dep.Dir,
				targetDir:   n.Dir,
			})
		}
	}
	return out
}
