package actions

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/links"
	"github.com/gpmworks/gpm/pkg/vcs"
	"github.com/gpmworks/gpm/pkg/workspace"
)

// Env carries what actions need besides the node they act on. It is built
// once per command invocation.
type Env struct {
	Workspace *workspace.Workspace
	VCS       vcs.Client
	Links     *links.Engine
	Logger    *log.Logger
}

// NewEnv wires an environment. A nil links engine gets one that ignores
// links through client.
func NewEnv(ws *workspace.Workspace, client vcs.Client, engine *links.Engine, logger *log.Logger) *Env {
	if logger == nil {
		logger = log.Default()
	}
	if engine == nil {
		engine = links.New(logger, vcs.GitIgnore{Client: client})
	}
	return &Env{Workspace: ws, VCS: client, Links: engine, Logger: logger}
}

// write saves n's manifest and stages it.
func (e *Env) write(n *graph.Node) error {
	if err := e.Workspace.WriteManifest(n); err != nil {
		return err
	}
	return e.stage(n)
}

func (e *Env) stage(n *graph.Node) error {
	rel, err := filepath.Rel(n.Dir, n.File)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "manifest %s outside %s", n.File, n.Dir)
	}
	return e.VCS.Add(n.Dir, rel)
}

// head returns the branch and commit checked out in dir.
func (e *Env) head(dir string) (branch, commit string, err error) {
	if branch, err = e.VCS.CurrentBranch(dir); err != nil {
		return "", "", err
	}
	if commit, err = e.VCS.CurrentCommit(dir); err != nil {
		return "", "", err
	}
	return branch, commit, nil
}

// Feature names a git-flow feature instead of a plain branch.
type Feature bool

// Branch resolves name for n: unchanged for plain branches, mapped through
// n's git-flow feature prefix otherwise.
func (f Feature) Branch(e *Env, n *graph.Node, name string) (string, error) {
	if !f || name == "" {
		return name, nil
	}
	return vcs.FeatureBranchName(e.VCS, n.Dir, name)
}

// reloadNode rebuilds the graph and returns n's replacement in it.
func (e *Env) reloadNode(ctx context.Context, name string) (*graph.Graph, *graph.Node, error) {
	g, err := e.Workspace.Reload(ctx)
	if err != nil {
		return nil, nil, err
	}
	n, err := g.Required(name)
	if err != nil {
		return nil, nil, err
	}
	return g, n, nil
}
