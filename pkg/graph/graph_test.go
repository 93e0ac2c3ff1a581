package graph

import (
	stderrors "errors"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/manifest"
)

// memLoader serves manifests from memory. Names without an entry are
// reported as absent.
type memLoader struct {
	root      string
	manifests map[string]*manifest.Manifest
	loads     map[string]int
}

func newMemLoader() *memLoader {
	return &memLoader{root: "/ws", manifests: map[string]*manifest.Manifest{}, loads: map[string]int{}}
}

func (l *memLoader) PackageDir(name string) string { return filepath.Join(l.root, name) }

func (l *memLoader) Load(name string) (*manifest.Manifest, error) {
	l.loads[name]++
	return l.manifests[name], nil
}

// dep is a manifest dependency on name with the given branch and commit.
func dep(name, branch, commit string) manifest.Dependency {
	return manifest.Dependency{Repo: "https://h/org/" + name + ".git", Branch: branch, Commit: commit}
}

func (l *memLoader) add(name string, deps ...manifest.Dependency) *manifest.Manifest {
	dir := l.PackageDir(name)
	m := &manifest.Manifest{
		File:         filepath.Join(dir, manifest.FileName),
		Dir:          dir,
		Name:         name,
		Dependencies: deps,
	}
	l.manifests[name] = m
	return m
}

func (l *memLoader) build(t *testing.T, root string, opts Options) *Graph {
	t.Helper()
	n, err := NewNode(l.manifests[root])
	if err != nil {
		t.Fatalf("NewNode(%s): %v", root, err)
	}
	g, err := Build(n, l, opts)
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}
	return g
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

// diamond: a -> b, a -> c, b -> d, c -> d
func diamond(l *memLoader) {
	l.add("a", dep("b", "master", "b1"), dep("c", "master", "c1"))
	l.add("b", dep("d", "master", "d1"))
	l.add("c", dep("d", "master", "d1"))
	l.add("d")
}

func TestBuildDiamondSharesNodes(t *testing.T) {
	l := newMemLoader()
	diamond(l)
	g := l.build(t, "a", Options{})

	if got, want := names(g.Nodes()), []string{"a", "b", "d", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Nodes() = %v, want %v", got, want)
	}

	b, _ := g.Node("b")
	c, _ := g.Node("c")
	viaB := g.Target(b.Dependencies[0])
	viaC := g.Target(c.Dependencies[0])
	if viaB == nil || viaB != viaC {
		t.Fatalf("edges to d resolve to different nodes: %p vs %p", viaB, viaC)
	}
	if got, want := viaB.Dependents(), []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("d.Dependents() = %v, want %v", got, want)
	}
	if l.loads["d"] != 1 {
		t.Errorf("d loaded %d times, want 1", l.loads["d"])
	}
	if got := names(g.DependentsOf(viaB)); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("DependentsOf(d) = %v", got)
	}
}

func TestBuildRecordsFirstDependent(t *testing.T) {
	tests := []struct {
		name string
		deps map[string][]string
		node string
		want []string
	}{
		{"chain", map[string][]string{"a": {"b"}, "b": nil}, "b", []string{"a"}},
		{"fan in", map[string][]string{"a": {"b", "c"}, "b": {"c"}, "c": nil}, "c", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newMemLoader()
			for name, deps := range tt.deps {
				var ds []manifest.Dependency
				for _, d := range deps {
					ds = append(ds, dep(d, "develop", ""))
				}
				l.add(name, ds...)
			}
			g := l.build(t, "a", Options{})
			n, ok := g.Node(tt.node)
			if !ok {
				t.Fatalf("node %s missing", tt.node)
			}
			got := n.Dependents()
			slices.Sort(got)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("%s.Dependents() = %v, want %v", tt.node, got, tt.want)
			}
		})
	}
}

func TestBuildMissingPlaceholder(t *testing.T) {
	l := newMemLoader()
	l.add("a", dep("b", "develop", ""), dep("gone", "master", "x"))
	l.add("b", dep("gone", "master", "x"))
	g := l.build(t, "a", Options{Selected: []string{"gone"}, Current: "b"})

	gone, ok := g.Node("gone")
	if !ok {
		t.Fatal("missing node not registered")
	}
	if !gone.IsMissing() {
		t.Errorf("Kind = %v, want missing", gone.Kind)
	}
	if gone.Repo != "https://h/org/gone.git" {
		t.Errorf("Repo = %q", gone.Repo)
	}
	if gone.Dir != filepath.Join("/ws", "gone") {
		t.Errorf("Dir = %q", gone.Dir)
	}
	if gone.File != "" || gone.Links != nil || len(gone.Dependencies) != 0 {
		t.Errorf("missing node carries data: %+v", gone)
	}
	if !gone.Selected {
		t.Error("gone should be selected")
	}
	if cur := g.Current(); cur == nil || cur.Name != "b" {
		t.Errorf("Current() = %v, want b", cur)
	}
	if got := names(g.Selection()); !reflect.DeepEqual(got, []string{"gone"}) {
		t.Errorf("Selection() = %v", got)
	}
}

func TestBuildMissingRoot(t *testing.T) {
	root := NewMissing("main", "https://h/org/main.git", "/ws/main")
	g, err := Build(root, newMemLoader(), Options{})
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}
	if g.Len() != 1 || g.Root() != root {
		t.Errorf("graph = %v, want only the root", names(g.Nodes()))
	}
	if _, err := g.RequiredCurrent(); !errors.Is(err, errors.ErrCodeMissingData) {
		t.Errorf("RequiredCurrent() = %v, want MISSING_DATA", err)
	}
}

func TestBuildCycle(t *testing.T) {
	l := newMemLoader()
	l.add("a", dep("b", "", ""))
	l.add("b", dep("c", "", ""))
	l.add("c", dep("a", "", ""))

	root, _ := NewNode(l.manifests["a"])
	_, err := Build(root, l, Options{})
	if !stderrors.Is(err, ErrDependencyCycle) {
		t.Fatalf("Build() = %v, want ErrDependencyCycle", err)
	}
	var ce *CycleError
	if !stderrors.As(err, &ce) {
		t.Fatalf("error is %T, want *CycleError", err)
	}
	if want := []string{"a", "b", "c", "a"}; !reflect.DeepEqual(ce.Path, want) {
		t.Errorf("Path = %v, want %v", ce.Path, want)
	}
	if ce.Code() != errors.ErrCodeCycle {
		t.Errorf("Code() = %s", ce.Code())
	}
}

func TestBuildSelfCycle(t *testing.T) {
	l := newMemLoader()
	l.add("a", dep("b", "", ""))
	l.add("b", dep("b", "", ""))

	root, _ := NewNode(l.manifests["a"])
	_, err := Build(root, l, Options{})
	var ce *CycleError
	if !stderrors.As(err, &ce) {
		t.Fatalf("Build() = %v, want *CycleError", err)
	}
	if want := []string{"b", "b"}; !reflect.DeepEqual(ce.Path, want) {
		t.Errorf("Path = %v, want %v", ce.Path, want)
	}
}

func TestBuildMismatchedManifestName(t *testing.T) {
	l := newMemLoader()
	l.add("a", dep("b", "", ""))
	l.manifests["b"] = &manifest.Manifest{Name: "other", Dir: "/elsewhere/other"}

	root, _ := NewNode(l.manifests["a"])
	if _, err := Build(root, l, Options{}); !errors.Is(err, errors.ErrCodeInvalidPackage) {
		t.Errorf("Build() = %v, want INVALID_PACKAGE", err)
	}
}

func TestGraphAddDuplicate(t *testing.T) {
	g := New()
	if err := g.Add(NewMissing("a", "", "")); err != nil {
		t.Fatal(err)
	}
	if err := g.Add(NewMissing("a", "", "")); !stderrors.Is(err, ErrDuplicateNode) {
		t.Errorf("Add() = %v, want ErrDuplicateNode", err)
	}
	if _, err := g.Required("zzz"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Required() = %v, want NOT_FOUND", err)
	}
}

func TestTransitive(t *testing.T) {
	l := newMemLoader()
	diamond(l)
	l.manifests["d"].Dependencies = []manifest.Dependency{dep("e", "", "")}
	g := l.build(t, "a", Options{})

	a := g.Root()
	if got, want := names(g.Transitive(a)), []string{"b", "d", "e", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Transitive(a) = %v, want %v", got, want)
	}
	c, _ := g.Node("c")
	if got, want := names(g.Transitive(c)), []string{"d", "e"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Transitive(c) = %v, want %v", got, want)
	}
}

func TestNodeWritePath(t *testing.T) {
	l := newMemLoader()
	l.add("a", dep("b", "master", "b1"))
	n, err := NewNode(l.manifests["a"])
	if err != nil {
		t.Fatal(err)
	}

	if _, err := n.AddDependency("https://h/org/c.git", "develop", "c1"); err != nil {
		t.Fatalf("AddDependency(): %v", err)
	}
	if _, err := n.AddDependency("https://h/org/c.git", "", ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("duplicate AddDependency() = %v, want INVALID_INPUT", err)
	}
	if _, err := n.AddDependency("https://h/org/a.git", "", ""); err == nil {
		t.Error("self dependency should fail")
	}
	if _, err := n.AddDependency("bogus", "", ""); !errors.Is(err, errors.ErrCodeInvalidURL) {
		t.Errorf("bad url AddDependency() = %v, want INVALID_URL", err)
	}

	if !n.RemoveDependency("b") {
		t.Error("RemoveDependency(b) = false")
	}
	if n.RemoveDependency("b") {
		t.Error("second RemoveDependency(b) = true")
	}
	if _, err := n.RequiredDependency("b"); !errors.Is(err, errors.ErrCodeMissingData) {
		t.Errorf("RequiredDependency(b) = %v, want MISSING_DATA", err)
	}

	m := n.Manifest()
	want := []manifest.Dependency{{Repo: "https://h/org/c.git", Branch: "develop", Commit: "c1"}}
	if !reflect.DeepEqual(m.Dependencies, want) {
		t.Errorf("Manifest().Dependencies = %v, want %v", m.Dependencies, want)
	}
	if m.File != l.manifests["a"].File {
		t.Errorf("Manifest().File = %q", m.File)
	}
}
