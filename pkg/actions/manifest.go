package actions

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/manifest"
)

// Resolve replaces merge-conflict blocks in a manifest with one side and
// stages the result.
type Resolve struct {
	*Env
	Side manifest.Side
}

func (Resolve) Name() string { return "resolve" }

func (a Resolve) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	changed, err := a.Workspace.Manifests.ResolveFile(n.File, a.Side)
	if err != nil {
		return err
	}
	if !changed {
		a.Logger.Debug("manifest not conflicted", "package", n.Name)
		return nil
	}
	a.Logger.Info("resolved manifest", "package", n.Name, "side", a.Side)
	return a.stage(n)
}

// Clean removes redundant dependencies: edges whose target the package
// already reaches through another dependency. Changed lists the packages
// whose manifest was rewritten.
type Clean struct {
	*Env
	Changed []string
}

func (*Clean) Name() string { return "clean" }

func (a *Clean) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	redundant := n.Redundant()
	if len(redundant) == 0 {
		return nil
	}
	for _, d := range redundant {
		a.Logger.Info("removing redundant dependency", "package", n.Name, "dependency", d.Name())
		n.RemoveDependency(d.Name())
	}
	if err := a.write(n); err != nil {
		return err
	}
	a.Changed = append(a.Changed, n.Name)
	return nil
}

// AddDependencies adds packages checked out in the workspace as
// dependencies, pinned to their origin and current commit. The branch is
// Branch when set, else the one each dependency has checked out. Existing
// edges only get their branch updated.
type AddDependencies struct {
	*Env
	Names  []string
	Branch string
}

func (AddDependencies) Name() string { return "add dependency" }

func (a AddDependencies) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	if n.IsMissing() {
		return nil
	}
	for _, name := range a.Names {
		if name == n.Name {
			continue
		}
		dir := a.Workspace.PackageDir(name)
		if !a.Workspace.Manifests.Exists(dir) {
			return errors.New(errors.ErrCodeNotFound, "package %s not found", name)
		}
		if t, ok := g.Node(name); ok && g.HasDescendant(t, n.Name, nil) {
			return &graph.CycleError{Path: []string{n.Name, name, n.Name}}
		}

		branch, commit, err := a.head(dir)
		if err != nil {
			return err
		}
		if a.Branch != "" {
			branch = a.Branch
		}
		if branch == "" {
			branch = "master"
		}

		if d := n.FindDependency(name); d != nil {
			a.Logger.Info("updating dependency", "package", n.Name, "dependency", name, "branch", branch)
			d.Branch = branch
			continue
		}
		repo, err := a.VCS.Origin(dir)
		if err != nil {
			return err
		}
		if _, err := n.AddDependency(repo, branch, commit); err != nil {
			return err
		}
		a.Logger.Info("adding dependency", "package", n.Name, "dependency", name,
			"branch", branch, "commit", graph.ShortCommit(commit))
	}
	return a.write(n)
}

// SetBranchOfDependents points every dependent's edge to the package at
// Branch. Without a branch, the dependents follow the package's current
// branch and commit.
type SetBranchOfDependents struct {
	*Env
	Branch string
}

func (SetBranchOfDependents) Name() string { return "update dependents" }

func (a SetBranchOfDependents) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	if a.Branch == "" {
		return Adjust{Env: a.Env, Dependents: true}.Apply(ctx, n, g)
	}
	for _, dep := range g.DependentsOf(n) {
		d, err := dep.RequiredDependency(n.Name)
		if err != nil {
			return err
		}
		if d.Branch == a.Branch {
			continue
		}
		a.Logger.Info("updating dependency", "package", dep.Name, "dependency", n.Name, "branch", a.Branch)
		d.Branch = a.Branch
		if err := a.write(dep); err != nil {
			return err
		}
	}
	return nil
}

// Print writes each manifest file to Out under a header line.
type Print struct {
	*Env
	Out io.Writer
}

func (Print) Name() string { return "print" }

func (a Print) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	data, err := os.ReadFile(n.File)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "failed to read %s", n.File)
	}
	_, err = fmt.Fprintf(a.Out, "%s manifest:\n%s\n\n", n.Name, strings.TrimSpace(string(data)))
	return err
}

// Convert rewrites a manifest in another format and stages the switch.
type Convert struct {
	*Env
	To manifest.Codec
}

func (Convert) Name() string { return "convert" }

func (a Convert) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	if n.IsMissing() {
		return nil
	}
	target := filepath.Join(n.Dir, a.To.FileName())
	if n.File == target {
		a.Logger.Debug("manifest already converted", "package", n.Name, "format", a.To.Type())
		return nil
	}
	if n.Conflicted {
		return errors.New(errors.ErrCodeConflict, "manifest of %s has merge conflicts", n.Name)
	}

	old := n.File
	if err := a.Workspace.Manifests.WriteTo(n.Manifest(), target); err != nil {
		return err
	}
	if err := os.Remove(old); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to remove %s", old)
	}
	a.Logger.Info("converted manifest", "package", n.Name, "format", a.To.Type())

	n.File = target
	for _, p := range []string{filepath.Base(old), filepath.Base(target)} {
		if err := a.VCS.Add(n.Dir, p); err != nil {
			return err
		}
	}
	return nil
}
