package actions

import (
	"context"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/graph"
)

// Checkout switches packages to a branch, tag or commit.
//
// With UseBranch or UseCommit the target comes from the package's
// dependents: the branch they agree on, or the commit they agree on. A
// package without dependents is left alone in that mode.
type Checkout struct {
	*Env
	Branch    string
	Feature   Feature
	UseBranch bool
	UseCommit bool
	Create    bool
}

func (Checkout) Name() string { return "checkout" }

// Validate rejects flag combinations before any package is touched.
func (c Checkout) Validate() error {
	fromDependents := c.UseBranch || c.UseCommit
	switch {
	case fromDependents && c.Branch != "":
		return errors.New(errors.ErrCodeInvalidInput,
			"branch name cannot be specified in conjunction with --branch or --commit")
	case !fromDependents && c.Branch == "":
		return errors.New(errors.ErrCodeMissingData,
			"branch must be specified when neither --branch nor --commit is given")
	}
	return nil
}

func (c Checkout) Apply(ctx context.Context, n *graph.Node, g *graph.Graph) error {
	if n.IsMissing() {
		return nil
	}
	if err := c.Validate(); err != nil {
		return err
	}

	ref, err := c.ref(n, g)
	if err != nil || ref == "" {
		return err
	}
	c.Logger.Info("checking out", "package", n.Name, "ref", ref, "create", c.Create)
	return c.VCS.Checkout(ctx, n.Dir, ref, c.Create)
}

func (c Checkout) ref(n *graph.Node, g *graph.Graph) (string, error) {
	if !c.UseBranch && !c.UseCommit {
		return c.Feature.Branch(c.Env, n, c.Branch)
	}
	if len(n.Dependents()) == 0 {
		return "", nil
	}
	if c.UseBranch {
		_, branch, err := g.RepoAndBranchForDependents(n)
		return branch, err
	}
	commit, _, err := g.CommitForDependents(n)
	return commit, err
}
