package links

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/observability"
)

// MarkerFile is created in a package directory while one of its exports is
// materialized.
const MarkerFile = "MATERIALIZED"

// Ignorer keeps created links out of version control.
type Ignorer interface {
	Ignore(dir, entry string) error
}

// Engine creates, removes, materializes and dematerializes links.
type Engine struct {
	Logger  *log.Logger
	Ignorer Ignorer // Optional
}

// New creates an engine. If logger is nil, log.Default() is used.
func New(logger *log.Logger, ignorer Ignorer) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{Logger: logger, Ignorer: ignorer}
}

type mode int

const (
	create mode = iota
	materialize
	dematerialize
)

func (m mode) verb() string {
	switch m {
	case materialize:
		return "materializing"
	case dematerialize:
		return "dematerializing"
	default:
		return "linking"
	}
}

// Create replaces n's links with a fresh set. A plain file or directory in
// the way of a link is an error.
func (e *Engine) Create(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	if err := e.Delete(n); err != nil {
		return err
	}
	return e.process(ctx, n, g, create)
}

// Delete removes every symlink under n's imports directory.
func (e *Engine) Delete(n *graph.Node) error {
	if n.Links == nil || n.Links.Imports == "" {
		return nil
	}
	links, err := findSymlinks(filepath.Join(n.Dir, n.Links.Imports))
	if err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, err, "failed to scan links of %s", n.Name)
	}
	for _, l := range links {
		e.Logger.Info("deleting link", "package", n.Name, "link", filepath.Base(l))
		if err := os.Remove(l); err != nil {
			return errors.Wrap(errors.ErrCodePrecondition, err, "failed to delete link %s", l)
		}
	}
	return nil
}

// Materialize replaces each of n's links with a copy of what it points to
// and marks the source packages materialized.
func (e *Engine) Materialize(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	return e.process(ctx, n, g, materialize)
}

// Dematerialize copies materialized contents back to their sources, then
// restores the links.
func (e *Engine) Dematerialize(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	return e.process(ctx, n, g, dematerialize)
}

// IsMaterialized reports whether an export of n is currently materialized
// in some dependent.
func IsMaterialized(n *graph.Node) bool {
	return exists(filepath.Join(n.Dir, MarkerFile))
}

// process applies m to every planned link. Materializing is all or
// nothing: when a link fails, the copies made so far are turned back into
// links.
func (e *Engine) process(ctx context.Context, n *graph.Node, g *graph.Graph, m mode) error {
	plan := Plan(n, g)
	if m == materialize {
		for _, l := range plan {
			if !isSymlink(l.Target) && exists(l.Target) {
				return errors.New(errors.ErrCodePrecondition, "link already materialized: %s", l.Target)
			}
		}
	}
	for i, l := range plan {
		e.Logger.Info(m.verb(), "link", l.String())
		if err := e.apply(ctx, l, m); err != nil {
			if m == materialize {
				e.rollback(ctx, plan[:i+1])
			}
			return err
		}
	}
	return nil
}

// rollback relinks every target of done that is not a symlink. Only copies
// made by the failed materialize can be in that state, and they hold no
// edits yet.
func (e *Engine) rollback(ctx context.Context, done []Link) {
	for _, l := range done {
		if isSymlink(l.Target) {
			continue
		}
		e.Logger.Warn("restoring link", "link", l.String())
		if err := os.RemoveAll(l.Target); err != nil {
			e.Logger.Warn("failed to remove copy", "target", l.Target, "err", err)
			continue
		}
		if err := symlink(ctx, l); err != nil {
			e.Logger.Warn("failed to restore link", "err", err)
		}
		if err := setMarker(l.SourcePkg, l.sourceDir, false); err != nil {
			e.Logger.Warn("failed to unmark", "err", err)
		}
	}
}

func (e *Engine) apply(ctx context.Context, l Link, m mode) error {
	if err := prepare(l, m); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.Target), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, err, "failed to create %s", filepath.Dir(l.Target))
	}

	var err error
	switch m {
	case materialize:
		err = e.materialize(ctx, l)
	case dematerialize:
		err = e.dematerialize(ctx, l)
	default:
		err = symlink(ctx, l)
	}
	if err != nil {
		return err
	}

	if e.Ignorer == nil {
		return nil
	}
	return e.Ignorer.Ignore(l.IgnoreDir, l.IgnoreEntry)
}

// prepare clears the way for a link according to the state of its target.
func prepare(l Link, m mode) error {
	switch {
	case isSymlink(l.Target):
		if m == dematerialize {
			return errors.New(errors.ErrCodePrecondition, "link already dematerialized: %s", l.Target)
		}
		if err := os.Remove(l.Target); err != nil {
			return errors.Wrap(errors.ErrCodePrecondition, err, "failed to remove link %s", l.Target)
		}
	case exists(l.Target):
		switch m {
		case materialize:
			return errors.New(errors.ErrCodePrecondition, "link already materialized: %s", l.Target)
		case create:
			return errors.New(errors.ErrCodePrecondition,
				"cannot create link in place of existing file or directory: %s", l.Target)
		}
	case m == dematerialize:
		return errors.New(errors.ErrCodePrecondition, "link was never materialized: %s", l.Target)
	}
	return nil
}

func symlink(ctx context.Context, l Link) error {
	if err := os.Symlink(l.Source, l.Target); err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, err, "failed to link %s", l.Target)
	}
	observability.Link().OnLinkCreated(ctx, l.TargetPkg, l.Source, l.Target)
	return nil
}

func (e *Engine) materialize(ctx context.Context, l Link) error {
	files, err := copyTree(l.Source, l.Target)
	if err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, err, "failed to copy %s", l.Source)
	}
	e.Logger.Info("copied to link location", "files", files, "target", l.Target)
	if err := setMarker(l.SourcePkg, l.sourceDir, true); err != nil {
		return err
	}
	observability.Link().OnMaterialized(ctx, l.TargetPkg, l.Target, files)
	return nil
}

// dematerialize mirrors the copy back onto the source: edited files
// overwrite theirs and files deleted from the copy are deleted there too.
func (e *Engine) dematerialize(ctx context.Context, l Link) error {
	files, err := copyTree(l.Target, l.Source)
	if err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, err, "failed to copy %s back", l.Target)
	}
	removed, err := pruneTree(l.Source, l.Target)
	if err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, err, "failed to remove deleted files from %s", l.Source)
	}
	e.Logger.Info("copied to original location", "files", files, "removed", removed, "source", l.Source)
	if err := os.RemoveAll(l.Target); err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, err, "failed to remove %s", l.Target)
	}
	if err := symlink(ctx, l); err != nil {
		return err
	}
	if err := setMarker(l.SourcePkg, l.sourceDir, false); err != nil {
		return err
	}
	observability.Link().OnDematerialized(ctx, l.TargetPkg, l.Target, files)
	return nil
}

func setMarker(pkg, dir string, on bool) error {
	marker := filepath.Join(dir, MarkerFile)
	if on {
		if err := os.WriteFile(marker, nil, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodePrecondition, err, "failed to mark %s materialized", pkg)
		}
		return nil
	}
	if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodePrecondition, err, "failed to unmark %s", pkg)
	}
	return nil
}
