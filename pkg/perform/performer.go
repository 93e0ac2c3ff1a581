package perform

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/observability"
)

// Options configures a walk.
type Options struct {
	// Reverse applies the action to a node after its dependencies instead
	// of before.
	Reverse bool
	// IncludeMissing passes Missing nodes to the action instead of skipping
	// them with a warning.
	IncludeMissing bool
	// Reload rebuilds the graph from disk around each action so that later
	// steps observe manifest changes made by earlier ones.
	Reload bool
}

// Reloader rebuilds the graph from storage.
type Reloader interface {
	Reload(ctx context.Context) (*graph.Graph, error)
}

// Performer walks a graph applying an action to each selected package.
// Walks are sequential; one package's action completes before the next
// starts.
type Performer struct {
	Logger   *log.Logger
	Reloader Reloader // Required when Options.Reload is set
	Prompter Prompter // Required for ModePrompt and single-package prompts
}

// New creates a performer. If logger is nil, log.Default() is used.
func New(logger *log.Logger, reloader Reloader, prompter Prompter) *Performer {
	if logger == nil {
		logger = log.Default()
	}
	return &Performer{Logger: logger, Reloader: reloader, Prompter: prompter}
}

func (p *Performer) logger() *log.Logger {
	if p.Logger == nil {
		return log.Default()
	}
	return p.Logger
}

// Perform walks g from its root. In forward mode a package is acted on
// after all of its dependents and before its dependencies; in reverse mode
// after its dependencies. Every package is acted on at most once. An action
// error is recorded in the report and the walk continues with the next
// package.
func (p *Performer) Perform(ctx context.Context, g *graph.Graph, action Action, pred Predicate, opts Options) *Report {
	id := uuid.NewString()
	w := &walker{
		p:         p,
		action:    action,
		pred:      pred,
		opts:      opts,
		g:         g,
		log:       p.logger().With("walk", id[:8]),
		id:        id,
		completed: make(map[string]bool),
		entered:   make(map[string]bool),
		warned:    make(map[string]bool),
		report:    &Report{WalkID: id},
	}

	start := time.Now()
	root := g.Root()
	if root == nil {
		return w.report
	}
	observability.Walk().OnWalkStart(ctx, id, root.Name)
	w.log.Debug("walk started", "action", action.Name(), "root", root.Name,
		"reverse", opts.Reverse, "reload", opts.Reload)

	w.walk(ctx, root.Name)

	w.report.Duration = time.Since(start)
	observability.Walk().OnWalkComplete(ctx, id, len(w.report.Visited), len(w.report.Failures), w.report.Duration)
	return w.report
}

// ApplyOne applies action to n alone, without walking its dependencies.
func (p *Performer) ApplyOne(ctx context.Context, g *graph.Graph, n *graph.Node, action Action) *Report {
	id := uuid.NewString()
	report := &Report{WalkID: id}
	hooks := observability.Walk()

	start := time.Now()
	hooks.OnWalkStart(ctx, id, n.Name)
	hooks.OnNodeStart(ctx, id, n.Name)
	err := action.Apply(ctx, n, g)
	hooks.OnNodeComplete(ctx, id, n.Name, time.Since(start), err)

	report.Visited = append(report.Visited, n.Name)
	if err != nil {
		p.logger().Error("action failed", "package", n.Name, "action", action.Name(), "err", err)
		report.fail(n.Name, err)
	}
	report.Duration = time.Since(start)
	hooks.OnWalkComplete(ctx, id, 1, len(report.Failures), report.Duration)
	return report
}

type walker struct {
	p      *Performer
	action Action
	pred   Predicate
	opts   Options
	g      *graph.Graph
	log    *log.Logger
	id     string

	completed map[string]bool
	entered   map[string]bool
	warned    map[string]bool
	report    *Report
}

func (w *walker) walk(ctx context.Context, name string) {
	n, ok := w.g.Node(name)
	if !ok {
		return
	}
	if n.IsMissing() && !w.opts.IncludeMissing {
		w.skipMissing(ctx, n)
		return
	}

	if w.opts.Reverse {
		if w.entered[n.Name] {
			return
		}
		w.entered[n.Name] = true
		w.descend(ctx, n)
		if !w.eligible(n) {
			return
		}
		if n = w.reload(ctx, n); n != nil {
			w.act(ctx, n)
		}
		return
	}

	// The last dependent to reach n walks it, so every dependent is acted
	// on before n.
	for _, dep := range n.Dependents() {
		if !w.entered[dep] {
			return
		}
	}
	if w.entered[n.Name] {
		return
	}
	w.entered[n.Name] = true
	if w.eligible(n) {
		w.act(ctx, n)
		if n = w.reload(ctx, n); n == nil {
			return
		}
	}
	w.descend(ctx, n)
}

func (w *walker) eligible(n *graph.Node) bool {
	return !w.completed[n.Name] && w.pred(n)
}

// descend walks n's dependencies. Names are taken up front since a reload
// replaces the graph while the loop runs.
func (w *walker) descend(ctx context.Context, n *graph.Node) {
	deps := w.g.DependenciesOf(n)
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.Name
	}
	for _, name := range names {
		w.walk(ctx, name)
	}
}

func (w *walker) act(ctx context.Context, n *graph.Node) {
	w.completed[n.Name] = true
	hooks := observability.Walk()

	hooks.OnNodeStart(ctx, w.id, n.Name)
	start := time.Now()
	err := w.action.Apply(ctx, n, w.g)
	hooks.OnNodeComplete(ctx, w.id, n.Name, time.Since(start), err)

	w.report.Visited = append(w.report.Visited, n.Name)
	if err != nil {
		w.log.Error("action failed", "package", n.Name, "action", w.action.Name(), "err", err)
		w.report.fail(n.Name, err)
	}
}

// reload swaps in a freshly built graph and returns n's replacement. It
// returns nil when n must not be processed further.
func (w *walker) reload(ctx context.Context, n *graph.Node) *graph.Node {
	if !w.opts.Reload {
		return n
	}
	if w.p.Reloader == nil {
		w.report.fail(n.Name, errors.New(errors.ErrCodeInternal, "reload requested without a reloader"))
		w.completed[n.Name] = true
		return nil
	}
	g, err := w.p.Reloader.Reload(ctx)
	if err != nil {
		w.log.Error("reload failed", "package", n.Name, "err", err)
		w.report.fail(n.Name, err)
		w.completed[n.Name] = true
		return nil
	}
	fresh, err := g.Required(n.Name)
	if err != nil {
		w.log.Error("package vanished after reload", "package", n.Name)
		w.report.fail(n.Name, err)
		w.completed[n.Name] = true
		return nil
	}
	w.g = g
	return fresh
}

func (w *walker) skipMissing(ctx context.Context, n *graph.Node) {
	if w.warned[n.Name] {
		return
	}
	w.warned[n.Name] = true
	w.log.Warn("skipping missing package", "package", n.Name)
	w.report.Skipped = append(w.report.Skipped, n.Name)
	observability.Walk().OnNodeSkipped(ctx, w.id, n.Name, "missing")
}
