package links

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/manifest"
)

type workspace struct {
	root      string
	manifests map[string]*manifest.Manifest
}

func newWorkspace(t *testing.T) *workspace {
	return &workspace{root: t.TempDir(), manifests: map[string]*manifest.Manifest{}}
}

func (w *workspace) PackageDir(name string) string { return filepath.Join(w.root, name) }

func (w *workspace) Load(name string) (*manifest.Manifest, error) { return w.manifests[name], nil }

func (w *workspace) add(t *testing.T, name string, links *manifest.Links, deps ...string) {
	t.Helper()
	dir := w.PackageDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	m := &manifest.Manifest{Dir: dir, Name: name, File: filepath.Join(dir, manifest.FileName), Links: links}
	for _, d := range deps {
		m.Dependencies = append(m.Dependencies, manifest.Dependency{Repo: "git@host:org/" + d + ".git"})
	}
	w.manifests[name] = m
}

func (w *workspace) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(w.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (w *workspace) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(w.root, rel))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func (w *workspace) graph(t *testing.T, root string) (*graph.Graph, *graph.Node) {
	t.Helper()
	n, err := graph.NewNode(w.manifests[root])
	if err != nil {
		t.Fatal(err)
	}
	g, err := graph.Build(n, w, graph.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return g, g.Root()
}

type recordIgnorer struct{ entries []string }

func (r *recordIgnorer) Ignore(dir, entry string) error {
	r.entries = append(r.entries, filepath.Base(dir)+":"+entry)
	return nil
}

func quietEngine(ig Ignorer) *Engine {
	logger := log.New(os.Stderr)
	logger.SetLevel(log.ErrorLevel)
	return New(logger, ig)
}

// sample is app -> core (single export) and app -> util (named exports),
// with core also depending on util.
func sample(t *testing.T) *workspace {
	w := newWorkspace(t)
	w.add(t, "app", &manifest.Links{
		Imports:   "lib",
		Internals: []manifest.InternalLink{{Source: "assets", Target: "public/assets"}},
	}, "core", "util")
	w.add(t, "core", &manifest.Links{Exports: manifest.Exports{Path: "src"}}, "util")
	w.add(t, "util", &manifest.Links{Exports: manifest.Exports{Named: []manifest.NamedExport{
		{Name: "api", Path: "api"},
		{Name: "cli", Path: "cmd"},
	}}})
	w.write(t, "app/assets/logo.svg", "<svg/>")
	w.write(t, "core/src/core.go", "package core\n")
	w.write(t, "util/api/api.go", "package api\n")
	w.write(t, "util/cmd/main.go", "package main\n")
	return w
}

func TestPlan(t *testing.T) {
	w := sample(t)
	g, app := w.graph(t, "app")

	var got []string
	for _, l := range Plan(app, g) {
		got = append(got, l.String())
	}
	want := []string{
		"app/public/assets -> app/assets",
		"app/lib/core -> core/src",
		"app/lib/util/api -> util/api",
		"app/lib/util/cli -> util/cmd",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Plan() = %v, want %v", got, want)
	}

	core, _ := g.Node("core")
	if plan := Plan(core, g); len(plan) != 0 {
		t.Errorf("Plan(core) = %v, want none without imports", plan)
	}
}

func TestCreateAndDelete(t *testing.T) {
	ctx := context.Background()
	w := sample(t)
	g, app := w.graph(t, "app")
	ig := &recordIgnorer{}
	e := quietEngine(ig)

	for range 2 {
		if err := e.Create(ctx, app, g); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	dest, err := os.Readlink(filepath.Join(w.root, "app/lib/util/cli"))
	if err != nil || dest != filepath.Join(w.root, "util/cmd") {
		t.Errorf("util/cli link = %q, %v", dest, err)
	}
	if got := w.read(t, "app/lib/core/core.go"); got != "package core\n" {
		t.Errorf("read through link = %q", got)
	}
	wantIgnores := []string{"public:assets", "lib:core", "lib:util", "lib:util"}
	if !reflect.DeepEqual(ig.entries[:4], wantIgnores) {
		t.Errorf("ignored = %v, want %v", ig.entries[:4], wantIgnores)
	}

	if err := e.Delete(app); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, rel := range []string{"app/lib/core", "app/lib/util/api", "app/lib/util/cli"} {
		if exists(filepath.Join(w.root, rel)) {
			t.Errorf("%s survived Delete", rel)
		}
	}
	if !isSymlink(filepath.Join(w.root, "app/public/assets")) {
		t.Error("internal link outside imports should be kept")
	}
}

func TestCreateRefusesRealDirectory(t *testing.T) {
	w := sample(t)
	w.write(t, "app/lib/core/local.txt", "mine")
	g, app := w.graph(t, "app")

	err := quietEngine(nil).Create(context.Background(), app, g)
	if !errors.Is(err, errors.ErrCodePrecondition) {
		t.Fatalf("Create error = %v, want PRECONDITION", err)
	}
	if got := w.read(t, "app/lib/core/local.txt"); got != "mine" {
		t.Error("existing data was overwritten")
	}
}

func TestMaterializeRoundTrip(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t)
	w.add(t, "app", &manifest.Links{Imports: "lib"}, "core")
	w.add(t, "core", &manifest.Links{Exports: manifest.Exports{Path: "src"}})
	w.write(t, "core/src/core.go", "package core\n")
	w.write(t, "core/src/sub/run.sh", "#!/bin/sh\n")
	if err := os.Chmod(filepath.Join(w.root, "core/src/sub/run.sh"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("core.go", filepath.Join(w.root, "core/src/alias.go")); err != nil {
		t.Fatal(err)
	}

	g, app := w.graph(t, "app")
	core, _ := g.Node("core")
	e := quietEngine(nil)
	if err := e.Create(ctx, app, g); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := e.Materialize(ctx, app, g); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	target := filepath.Join(w.root, "app/lib/core")
	if isSymlink(target) {
		t.Fatal("target still a symlink after Materialize")
	}
	if !IsMaterialized(core) {
		t.Error("core not marked materialized")
	}
	if !isSymlink(filepath.Join(target, "alias.go")) {
		t.Error("nested symlink was not copied as a symlink")
	}
	if info, err := os.Stat(filepath.Join(target, "sub/run.sh")); err != nil || info.Mode().Perm() != 0o755 {
		t.Errorf("copied mode = %v, %v; want 0755", info, err)
	}
	if err := e.Materialize(ctx, app, g); !errors.Is(err, errors.ErrCodePrecondition) {
		t.Errorf("second Materialize error = %v, want PRECONDITION", err)
	}

	w.write(t, "app/lib/core/core.go", "package core // edited\n")

	if err := e.Dematerialize(ctx, app, g); err != nil {
		t.Fatalf("Dematerialize: %v", err)
	}
	if dest, err := os.Readlink(target); err != nil || dest != filepath.Join(w.root, "core/src") {
		t.Errorf("link after Dematerialize = %q, %v", dest, err)
	}
	if got := w.read(t, "core/src/core.go"); got != "package core // edited\n" {
		t.Errorf("source after Dematerialize = %q, want edit propagated", got)
	}
	if IsMaterialized(core) {
		t.Error("marker left after Dematerialize")
	}
	if err := e.Dematerialize(ctx, app, g); !errors.Is(err, errors.ErrCodePrecondition) {
		t.Errorf("second Dematerialize error = %v, want PRECONDITION", err)
	}
}

func TestDematerializeNeverMaterialized(t *testing.T) {
	w := newWorkspace(t)
	w.add(t, "app", &manifest.Links{Imports: "lib"}, "core")
	w.add(t, "core", &manifest.Links{Exports: manifest.Exports{Path: "src"}})
	w.write(t, "core/src/core.go", "package core\n")
	g, app := w.graph(t, "app")

	err := quietEngine(nil).Dematerialize(context.Background(), app, g)
	if !errors.Is(err, errors.ErrCodePrecondition) {
		t.Errorf("Dematerialize error = %v, want PRECONDITION", err)
	}
}

type failingIgnorer struct{ entry string }

func (f failingIgnorer) Ignore(_, entry string) error {
	if entry == f.entry {
		return os.ErrPermission
	}
	return nil
}

func TestMaterializeRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	w := sample(t)
	g, app := w.graph(t, "app")
	core, _ := g.Node("core")
	if err := quietEngine(nil).Create(ctx, app, g); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := quietEngine(failingIgnorer{entry: "util"}).Materialize(ctx, app, g)
	if err == nil {
		t.Fatal("Materialize succeeded despite failing ignorer")
	}
	for _, rel := range []string{"app/public/assets", "app/lib/core", "app/lib/util/api"} {
		if !isSymlink(filepath.Join(w.root, rel)) {
			t.Errorf("%s not restored to a link", rel)
		}
	}
	if IsMaterialized(core) {
		t.Error("core still marked materialized")
	}
	if err := quietEngine(nil).Materialize(ctx, app, g); err != nil {
		t.Errorf("Materialize after rollback: %v", err)
	}
}

func TestDematerializeRemovesDeletedFiles(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t)
	w.add(t, "app", &manifest.Links{Imports: "lib"}, "core")
	w.add(t, "core", &manifest.Links{Exports: manifest.Exports{Path: "src"}})
	w.write(t, "core/src/core.go", "package core\n")
	w.write(t, "core/src/old/old.go", "package old\n")
	w.write(t, "core/src/stale.go", "package core\n")

	g, app := w.graph(t, "app")
	e := quietEngine(nil)
	if err := e.Create(ctx, app, g); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := e.Materialize(ctx, app, g); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	for _, rel := range []string{"app/lib/core/old", "app/lib/core/stale.go"} {
		if err := os.RemoveAll(filepath.Join(w.root, rel)); err != nil {
			t.Fatal(err)
		}
	}
	w.write(t, "app/lib/core/new.go", "package core\n")

	if err := e.Dematerialize(ctx, app, g); err != nil {
		t.Fatalf("Dematerialize: %v", err)
	}
	tests := []struct {
		rel  string
		want bool
	}{
		{"core/src/core.go", true},
		{"core/src/new.go", true},
		{"core/src/old", false},
		{"core/src/stale.go", false},
	}
	for _, tt := range tests {
		if got := exists(filepath.Join(w.root, tt.rel)); got != tt.want {
			t.Errorf("exists(%s) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}
