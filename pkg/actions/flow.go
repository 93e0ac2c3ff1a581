package actions

import (
	"context"
	"path/filepath"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/manifest"
	"github.com/gpmworks/gpm/pkg/vcs"
)

// Flow configures git-flow branch names and prefixes.
type Flow struct {
	*Env
	Config vcs.FlowConfig
}

func (Flow) Name() string { return "flow" }

func (a Flow) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	return vcs.InitFlow(ctx, a.VCS, a.Logger, n.Dir, a.Config)
}

// StartFeature starts a git-flow feature branch and publishes it.
type StartFeature struct {
	*Env
	Feature string
}

func (StartFeature) Name() string { return "start" }

func (a StartFeature) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	if a.Feature == "" {
		return errors.New(errors.ErrCodeMissingData, "feature name is required")
	}
	a.Logger.Info("starting feature", "package", n.Name, "feature", a.Feature)
	return a.VCS.StartFeature(ctx, n.Dir, a.Feature)
}

// FinishFeature finishes a git-flow feature and pushes the result. Without
// a name the feature currently checked out is finished; packages on a
// plain branch are skipped.
type FinishFeature struct {
	*Env
	Feature string
}

func (FinishFeature) Name() string { return "finish" }

func (a FinishFeature) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	feature := a.Feature
	if feature == "" {
		var err error
		if feature, err = vcs.CurrentFeature(a.VCS, n.Dir); err != nil {
			return err
		}
	}
	if feature == "" {
		a.Logger.Info("skipping package not on a feature branch", "package", n.Name)
		return nil
	}
	a.Logger.Info("finishing feature", "package", n.Name, "feature", feature)
	if err := a.VCS.FinishFeature(ctx, n.Dir, feature); err != nil {
		return err
	}
	return a.VCS.Push(ctx, n.Dir)
}

// Merge merges a branch into the current one. A conflicted manifest is
// resolved to the incoming side, after which the package's own edges are
// re-pinned to what is checked out. Other conflicts are left for the user.
type Merge struct {
	*Env
	Branch  string
	Feature Feature
	Abort   bool
}

func (Merge) Name() string { return "merge" }

func (a Merge) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	if a.Abort {
		if !a.VCS.IsMerging(n.Dir) {
			a.Logger.Info("skipping package without merge in progress", "package", n.Name)
			return nil
		}
		a.Logger.Info("aborting merge", "package", n.Name)
		return a.VCS.AbortMerge(ctx, n.Dir)
	}

	if a.Branch == "" {
		return errors.New(errors.ErrCodeMissingData, "branch to merge is required")
	}
	branch, err := a.Feature.Branch(a.Env, n, a.Branch)
	if err != nil {
		return err
	}

	a.Logger.Info("merging", "package", n.Name, "branch", branch)
	merged := true
	if err := a.VCS.Merge(ctx, n.Dir, branch); err != nil {
		a.Logger.Warn("merge stopped", "package", n.Name, "err", err)
		merged = false
	}

	rel, err := filepath.Rel(n.Dir, n.File)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "manifest %s outside %s", n.File, n.Dir)
	}
	conflicted := !merged
	if merged {
		if conflicted, err = a.VCS.FileConflicted(ctx, n.Dir, rel); err != nil {
			return err
		}
	}
	if conflicted {
		changed, err := a.Workspace.Manifests.ResolveFile(n.File, manifest.Theirs)
		if err != nil {
			return err
		}
		if changed {
			a.Logger.Info("resolved manifest", "package", n.Name, "side", manifest.Theirs)
			if err := a.VCS.Add(n.Dir, rel); err != nil {
				return err
			}
		}
	}

	g, fresh, err := a.reloadNode(ctx, n.Name)
	if err != nil {
		return err
	}
	return Adjust{Env: a.Env}.Apply(ctx, fresh, g)
}
