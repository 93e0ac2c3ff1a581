package perform

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/manifest"
	"github.com/gpmworks/gpm/pkg/observability"
)

// fixture is an in-memory workspace that can rebuild its graph.
type fixture struct {
	manifests map[string]*manifest.Manifest
	root      string
	opts      graph.Options
	reloads   int
	failLoad  bool
}

func newFixture(root string) *fixture {
	return &fixture{manifests: map[string]*manifest.Manifest{}, root: root}
}

func (f *fixture) PackageDir(name string) string { return "/ws/" + name }

func (f *fixture) Load(name string) (*manifest.Manifest, error) { return f.manifests[name], nil }

func (f *fixture) add(name string, deps ...string) {
	m := &manifest.Manifest{Name: name, Dir: f.PackageDir(name), File: f.PackageDir(name) + "/package.yaml"}
	for _, d := range deps {
		m.Dependencies = append(m.Dependencies, manifest.Dependency{Repo: "https://h/org/" + d + ".git"})
	}
	f.manifests[name] = m
}

func (f *fixture) build() (*graph.Graph, error) {
	root, err := graph.NewNode(f.manifests[f.root])
	if err != nil {
		return nil, err
	}
	return graph.Build(root, f, f.opts)
}

func (f *fixture) Reload(context.Context) (*graph.Graph, error) {
	f.reloads++
	if f.failLoad {
		return nil, fmt.Errorf("disk on fire")
	}
	return f.build()
}

func (f *fixture) graph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := f.build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return g
}

// diamond: root -> b, root -> c, b -> d, c -> d
func diamond() *fixture {
	f := newFixture("root")
	f.add("root", "b", "c")
	f.add("b", "d")
	f.add("c", "d")
	f.add("d")
	return f
}

func quietPerformer(r Reloader, p Prompter) *Performer {
	return New(log.New(io.Discard), r, p)
}

// recorder is an action that records the packages it was applied to.
type recorder struct {
	visited []string
	failOn  map[string]error
	graphs  []*graph.Graph
}

func (r *recorder) Name() string { return "record" }

func (r *recorder) Apply(_ context.Context, n *graph.Node, g *graph.Graph) error {
	r.visited = append(r.visited, n.Name)
	r.graphs = append(r.graphs, g)
	return r.failOn[n.Name]
}

func TestPerformOrder(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{name: "forward", opts: Options{}, want: []string{"root", "b", "c", "d"}},
		{name: "reverse", opts: Options{Reverse: true}, want: []string{"d", "b", "c", "root"}},
		{name: "forward with reload", opts: Options{Reload: true}, want: []string{"root", "b", "c", "d"}},
		{name: "reverse with reload", opts: Options{Reverse: true, Reload: true}, want: []string{"d", "b", "c", "root"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := diamond()
			rec := &recorder{}
			report := quietPerformer(f, nil).Perform(context.Background(), f.graph(t), rec, All(), tt.opts)

			if !reflect.DeepEqual(rec.visited, tt.want) {
				t.Errorf("visited = %v, want %v", rec.visited, tt.want)
			}
			if !reflect.DeepEqual(report.Visited, tt.want) {
				t.Errorf("report.Visited = %v, want %v", report.Visited, tt.want)
			}
			if report.Failed() {
				t.Errorf("unexpected failures: %v", report.Err())
			}
			if report.WalkID == "" {
				t.Error("WalkID is empty")
			}
		})
	}
}

func TestPerformFailureIsolation(t *testing.T) {
	for _, reverse := range []bool{false, true} {
		t.Run(fmt.Sprintf("reverse=%v", reverse), func(t *testing.T) {
			f := diamond()
			boom := stderrors.New("boom")
			rec := &recorder{failOn: map[string]error{"b": boom}}
			report := quietPerformer(nil, nil).Perform(context.Background(), f.graph(t), rec, All(), Options{Reverse: reverse})

			if len(rec.visited) != 4 {
				t.Errorf("visited = %v, want all four packages", rec.visited)
			}
			if !stderrors.Is(report.FailureFor("b"), boom) {
				t.Errorf("FailureFor(b) = %v, want boom", report.FailureFor("b"))
			}
			for _, name := range []string{"root", "c", "d"} {
				if err := report.FailureFor(name); err != nil {
					t.Errorf("FailureFor(%s) = %v, want nil", name, err)
				}
			}
			if len(report.Failures) != 1 {
				t.Errorf("Failures = %v, want 1", report.Failures)
			}
			if !stderrors.Is(report.Err(), boom) {
				t.Errorf("Err() = %v, want to wrap boom", report.Err())
			}
		})
	}
}

func TestPerformMissing(t *testing.T) {
	f := newFixture("root")
	f.add("root", "b", "ghost")
	f.add("b", "ghost")

	rec := &recorder{}
	report := quietPerformer(nil, nil).Perform(context.Background(), f.graph(t), rec, All(), Options{})
	if want := []string{"root", "b"}; !reflect.DeepEqual(rec.visited, want) {
		t.Errorf("visited = %v, want %v", rec.visited, want)
	}
	if want := []string{"ghost"}; !reflect.DeepEqual(report.Skipped, want) {
		t.Errorf("Skipped = %v, want %v (warned once)", report.Skipped, want)
	}

	rec = &recorder{}
	quietPerformer(nil, nil).Perform(context.Background(), f.graph(t), rec, All(), Options{IncludeMissing: true})
	if want := []string{"root", "b", "ghost"}; !reflect.DeepEqual(rec.visited, want) {
		t.Errorf("IncludeMissing visited = %v, want %v", rec.visited, want)
	}
}

func TestPerformPredicateStillDescends(t *testing.T) {
	f := diamond()
	rec := &recorder{}
	quietPerformer(nil, nil).Perform(context.Background(), f.graph(t), rec, Names("d"), Options{})
	if want := []string{"d"}; !reflect.DeepEqual(rec.visited, want) {
		t.Errorf("visited = %v, want %v", rec.visited, want)
	}

	f.opts.Selected = []string{"c", "root"}
	rec = &recorder{}
	quietPerformer(nil, nil).Perform(context.Background(), f.graph(t), rec, Selected(), Options{Reverse: true})
	if want := []string{"c", "root"}; !reflect.DeepEqual(rec.visited, want) {
		t.Errorf("visited = %v, want %v", rec.visited, want)
	}
}

func TestPerformReloadObservesMutations(t *testing.T) {
	f := newFixture("root")
	f.add("root", "b")
	f.add("b")

	var seen []string
	var last *graph.Graph
	action := ActionFunc(func(_ context.Context, n *graph.Node, g *graph.Graph) error {
		seen = append(seen, n.Name)
		last = g
		if n.Name == "root" {
			// root gains a dependency on a package that appears on disk
			f.add("root", "b", "e")
			f.add("e")
		}
		return nil
	})

	g := f.graph(t)
	report := quietPerformer(f, nil).Perform(context.Background(), g, action, All(), Options{Reload: true})
	if want := []string{"root", "b", "e"}; !reflect.DeepEqual(seen, want) {
		t.Errorf("visited = %v, want %v", seen, want)
	}
	if report.Failed() {
		t.Errorf("unexpected failures: %v", report.Err())
	}
	if last == g {
		t.Error("actions after a reload should receive the reloaded graph")
	}
	if f.reloads != 3 {
		t.Errorf("reloads = %d, want 3", f.reloads)
	}
}

func TestPerformReloadFailure(t *testing.T) {
	f := diamond()
	g := f.graph(t)
	f.failLoad = true

	rec := &recorder{}
	report := quietPerformer(f, nil).Perform(context.Background(), g, rec, All(), Options{Reverse: true, Reload: true})
	if len(rec.visited) != 0 {
		t.Errorf("visited = %v, want none", rec.visited)
	}
	if len(report.Failures) != 4 {
		t.Errorf("Failures = %v, want one per package", report.Failures)
	}
}

type countingHooks struct {
	observability.NoopWalkHooks
	started, completed, skipped int
}

func (h *countingHooks) OnNodeStart(context.Context, string, string) { h.started++ }
func (h *countingHooks) OnNodeComplete(context.Context, string, string, time.Duration, error) {
	h.completed++
}
func (h *countingHooks) OnNodeSkipped(context.Context, string, string, string) { h.skipped++ }

func TestPerformHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetWalkHooks(hooks)
	defer observability.Reset()

	f := diamond()
	f.add("c", "d", "ghost")
	quietPerformer(nil, nil).Perform(context.Background(), f.graph(t), &recorder{}, All(), Options{})

	if hooks.started != 4 || hooks.completed != 4 || hooks.skipped != 1 {
		t.Errorf("hooks = %+v", hooks)
	}
}

type fakePrompter struct {
	many []string
	one  string
	err  error
}

func (p *fakePrompter) SelectMany(context.Context, string, []string, []string) ([]string, error) {
	return p.many, p.err
}

func (p *fakePrompter) SelectOne(context.Context, string, []string) (string, error) {
	return p.one, p.err
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		selected []string
		current  string
		prompter *fakePrompter
		want     []string
		wantCode errors.Code
	}{
		{name: "selection empty means all", mode: ModeSelection, want: []string{"root", "b", "c", "d"}},
		{name: "selection", mode: ModeSelection, selected: []string{"b", "d"}, want: []string{"b", "d"}},
		{name: "all ignores selection", mode: ModeAll, selected: []string{"b"}, want: []string{"root", "b", "c", "d"}},
		{name: "current", mode: ModeCurrent, current: "c", want: []string{"c"}},
		{name: "current required", mode: ModeCurrent, wantCode: errors.ErrCodeMissingData},
		{name: "prompt", mode: ModePrompt, selected: []string{"b"}, prompter: &fakePrompter{many: []string{"c"}}, want: []string{"c"}},
		{name: "prompt without prompter", mode: ModePrompt, selected: []string{"b"}, wantCode: errors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := diamond()
			f.opts = graph.Options{Selected: tt.selected, Current: tt.current}
			var p Prompter
			if tt.prompter != nil {
				p = tt.prompter
			}
			rec := &recorder{}
			report, err := quietPerformer(nil, p).Run(context.Background(), f.graph(t), rec, tt.mode, Options{})
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("Run() error = %v, want %s", err, tt.wantCode)
				}
				if len(rec.visited) != 0 {
					t.Errorf("visited = %v after error", rec.visited)
				}
				return
			}
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if !reflect.DeepEqual(report.Visited, tt.want) {
				t.Errorf("Visited = %v, want %v", report.Visited, tt.want)
			}
		})
	}
}

func TestRunSingle(t *testing.T) {
	f := diamond()
	f.opts.Current = "b"
	g := f.graph(t)

	rec := &recorder{}
	p := quietPerformer(nil, &fakePrompter{one: "d"})
	if _, err := p.RunSingle(context.Background(), g, rec, true, Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.RunSingle(context.Background(), g, rec, false, Options{}); err != nil {
		t.Fatal(err)
	}
	if want := []string{"b", "d"}; !reflect.DeepEqual(rec.visited, want) {
		t.Errorf("visited = %v, want %v", rec.visited, want)
	}

	cancelled := stderrors.New("cancelled")
	p = quietPerformer(nil, &fakePrompter{err: cancelled})
	if _, err := p.RunSingle(context.Background(), g, rec, false, Options{}); !stderrors.Is(err, cancelled) {
		t.Errorf("RunSingle() = %v, want cancelled", err)
	}
}

func TestModeFromFlags(t *testing.T) {
	tests := []struct {
		current, all, prompt bool
		want                 Mode
	}{
		{false, false, false, ModeSelection},
		{true, false, false, ModeCurrent},
		{false, true, false, ModeAll},
		{false, false, true, ModePrompt},
		{true, true, true, ModeCurrent},
	}
	for _, tt := range tests {
		if got := ModeFromFlags(tt.current, tt.all, tt.prompt); got != tt.want {
			t.Errorf("ModeFromFlags(%v, %v, %v) = %v, want %v", tt.current, tt.all, tt.prompt, got, tt.want)
		}
	}
}
