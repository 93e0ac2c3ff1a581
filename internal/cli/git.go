package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gpmworks/gpm/pkg/actions"
	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/perform"
	"github.com/gpmworks/gpm/pkg/vcs"
)

// walkCommand builds a command that runs one action over the selected
// packages. newAction is called after flags are parsed.
func (c *CLI) walkCommand(cmd *cobra.Command, sc *scope, opts perform.Options, newAction func(*session, []string) (perform.Action, error)) *cobra.Command {
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := c.open()
		if err != nil {
			return err
		}
		action, err := newAction(s, args)
		if err != nil {
			return err
		}
		return s.run(cmd.Context(), action, sc, opts)
	}
	return cmd
}

func (c *CLI) addCommand() *cobra.Command {
	var sc scope
	cmd := c.walkCommand(&cobra.Command{
		Use:     "add",
		Short:   "Stage all changes in selected packages",
		GroupID: groupGit,
		Args:    cobra.NoArgs,
	}, &sc, perform.Options{}, func(s *session, _ []string) (perform.Action, error) {
		return actions.Stage{Env: s.env}, nil
	})
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) commitCommand() *cobra.Command {
	var (
		sc     scope
		staged bool
	)
	cmd := c.walkCommand(&cobra.Command{
		Use:   "commit <message>",
		Short: "Commit changes in selected packages, dependencies first",
		Long: `Commit changes in selected packages. Dependencies are committed before their
dependents, and each commit pins the dependents' manifests to it, so one
commit command leaves every manifest up to date.`,
		GroupID: groupGit,
		Args:    cobra.ExactArgs(1),
	}, &sc, perform.Options{Reverse: true}, func(s *session, args []string) (perform.Action, error) {
		return actions.Commit{Env: s.env, Message: args[0], StagedOnly: staged}, nil
	})
	cmd.Flags().BoolVarP(&staged, "staged", "s", false, "only commit staged changes")
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) checkoutCommand() *cobra.Command {
	var (
		sc      scope
		co      actions.Checkout
		discard bool
	)
	cmd := &cobra.Command{
		Use:     "checkout [branch]",
		Aliases: []string{"co"},
		Short:   "Check out a branch in selected packages",
		Long: `Check out a branch, tag or commit in selected packages.

With --branch or --commit no name is given: each package checks out what
its dependents' manifests ask for.`,
		GroupID: groupGit,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) > 0 {
				co.Branch = args[0]
			}
			if err := co.Validate(); err != nil {
				return err
			}
			s, err := c.open()
			if err != nil {
				return err
			}
			if discard {
				ok, err := s.discard(ctx, &sc)
				if err != nil || !ok {
					return err
				}
			}
			co.Env = s.env
			return s.run(ctx, co, &sc, perform.Options{IncludeMissing: true})
		},
	}
	cmd.Flags().BoolVarP(&co.Create, "create", "b", false, "create a new branch")
	cmd.Flags().BoolVarP(&co.UseCommit, "commit", "C", false, "check out the commit dependents specify")
	cmd.Flags().BoolVarP(&co.UseBranch, "branch", "B", false, "check out the branch dependents specify")
	cmd.Flags().BoolVarP((*bool)(&co.Feature), "feature", "f", false, "treat the name as a git-flow feature")
	cmd.Flags().BoolVarP(&discard, "discard", "d", false, "discard all local changes first")
	cmd.MarkFlagsMutuallyExclusive("commit", "branch", "create")
	cmd.MarkFlagsMutuallyExclusive("commit", "branch", "feature")
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) mergeCommand() *cobra.Command {
	var (
		sc    scope
		merge actions.Merge
	)
	cmd := c.walkCommand(&cobra.Command{
		Use:   "merge [branch]",
		Short: "Merge a branch into the current branch of selected packages",
		Long: `Merge a branch into the current branch of selected packages. A conflicted
manifest is resolved in favour of the merged branch and then re-pinned to
the dependencies as checked out.`,
		GroupID: groupGit,
		Args:    cobra.MaximumNArgs(1),
	}, &sc, perform.Options{}, func(s *session, args []string) (perform.Action, error) {
		if len(args) > 0 {
			merge.Branch = args[0]
		}
		if merge.Branch == "" && !merge.Abort {
			return nil, errors.New(errors.ErrCodeMissingData, "branch argument is required unless --abort is given")
		}
		merge.Env = s.env
		return merge, nil
	})
	cmd.Flags().BoolVar(&merge.Abort, "abort", false, "abort the merge in progress")
	cmd.Flags().BoolVarP((*bool)(&merge.Feature), "feature", "f", false, "treat the name as a git-flow feature")
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) pushCommand() *cobra.Command {
	var sc scope
	cmd := c.walkCommand(&cobra.Command{
		Use:     "push",
		Short:   "Push the current branch of selected packages",
		GroupID: groupGit,
		Args:    cobra.NoArgs,
	}, &sc, perform.Options{}, func(s *session, _ []string) (perform.Action, error) {
		return actions.Push{Env: s.env}, nil
	})
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) pullCommand() *cobra.Command {
	var sc scope
	cmd := c.walkCommand(&cobra.Command{
		Use:     "pull",
		Short:   "Pull the current branch of selected packages",
		GroupID: groupGit,
		Args:    cobra.NoArgs,
	}, &sc, perform.Options{}, func(s *session, _ []string) (perform.Action, error) {
		return actions.Pull{Env: s.env}, nil
	})
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) startCommand() *cobra.Command {
	var sc scope
	cmd := c.walkCommand(&cobra.Command{
		Use:     "start <feature>",
		Short:   "Start a git-flow feature branch in selected packages",
		Long:    `Start a git-flow feature branch named feature/<user>/<feature> and push it.`,
		GroupID: groupGit,
		Args:    cobra.ExactArgs(1),
	}, &sc, perform.Options{}, func(s *session, args []string) (perform.Action, error) {
		return actions.StartFeature{Env: s.env, Feature: args[0]}, nil
	})
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) finishCommand() *cobra.Command {
	var sc scope
	cmd := c.walkCommand(&cobra.Command{
		Use:   "finish [feature]",
		Short: "Finish a git-flow feature in selected packages",
		Long: `Merge a git-flow feature into develop and push. Without a name, each
package finishes the feature it has checked out.`,
		GroupID: groupGit,
		Args:    cobra.MaximumNArgs(1),
	}, &sc, perform.Options{Reverse: true}, func(s *session, args []string) (perform.Action, error) {
		a := actions.FinishFeature{Env: s.env}
		if len(args) > 0 {
			a.Feature = args[0]
		}
		return a, nil
	})
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) flowCommand() *cobra.Command {
	var (
		sc   scope
		flow vcs.FlowConfig
	)
	cmd := c.walkCommand(&cobra.Command{
		Use:     "flow",
		Short:   "Configure git flow in selected packages",
		GroupID: groupGit,
		Args:    cobra.NoArgs,
	}, &sc, perform.Options{}, func(s *session, _ []string) (perform.Action, error) {
		return actions.Flow{Env: s.env, Config: flow}, nil
	})
	addFlowFlags(cmd, &flow)
	addScopeFlags(cmd, &sc, false)
	return cmd
}

func (c *CLI) tagCommand() *cobra.Command {
	var sc scope
	cmd := c.walkCommand(&cobra.Command{
		Use:     "tag <name>",
		Short:   "Create and push a tag in selected packages",
		GroupID: groupGit,
		Args:    cobra.ExactArgs(1),
	}, &sc, perform.Options{}, func(s *session, args []string) (perform.Action, error) {
		return actions.Tag{Env: s.env, Tag: args[0]}, nil
	})
	addScopeFlags(cmd, &sc, false)
	return cmd
}

func (c *CLI) deleteCommand() *cobra.Command {
	var (
		sc  scope
		del actions.DeleteBranch
	)
	cmd := c.walkCommand(&cobra.Command{
		Use:     "delete <branch>",
		Aliases: []string{"del"},
		Short:   "Delete a local and optionally remote branch in selected packages",
		GroupID: groupGit,
		Args:    cobra.ExactArgs(1),
	}, &sc, perform.Options{}, func(s *session, args []string) (perform.Action, error) {
		del.Env, del.Branch = s.env, args[0]
		return del, nil
	})
	cmd.Flags().BoolVarP(&del.Remote, "remote", "r", false, "also delete the remote branch")
	cmd.Flags().BoolVarP((*bool)(&del.Feature), "feature", "f", false, "treat the name as a git-flow feature")
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) discardCommand() *cobra.Command {
	var sc scope
	cmd := &cobra.Command{
		Use:     "discard",
		Short:   "Discard all local changes in selected packages",
		GroupID: groupGit,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open()
			if err != nil {
				return err
			}
			_, err = s.discard(cmd.Context(), &sc)
			return err
		},
	}
	addScopeFlags(cmd, &sc, true)
	return cmd
}

// discard asks for confirmation and throws away local changes. It reports
// whether the user went ahead.
func (s *session) discard(ctx context.Context, sc *scope) (bool, error) {
	ok, err := s.cli.prompter().Confirm(ctx, "Discard all local changes from selected packages?")
	if err != nil || !ok {
		return false, err
	}
	quiet := *sc
	quiet.list = false
	return true, s.run(ctx, actions.Discard{Env: s.env}, &quiet, perform.Options{})
}

func (c *CLI) gitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "git [-a|-c|-p] <args>...",
		Short: "Run a git command in selected packages",
		Long: `Run an arbitrary git command in each selected package. A leading -a, -c or
-p chooses the packages like elsewhere; everything else goes to git.`,
		GroupID:            groupGit,
		DisableFlagParsing: true,
		Args:               cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, rest := parseGitArgs(args)
			if len(rest) == 0 {
				return errors.New(errors.ErrCodeMissingData, "missing git arguments")
			}
			s, err := c.open()
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), actions.Exec{Env: s.env, Args: rest}, &sc, perform.Options{})
		},
	}
}

// parseGitArgs strips the leading scope flags from a passthrough command
// line.
func parseGitArgs(args []string) (scope, []string) {
	sc := scope{list: true}
	for len(args) > 0 {
		switch args[0] {
		case "-a", "--all":
			sc.all = true
		case "-c", "--current":
			sc.current = true
		case "-p", "--prompt":
			sc.prompt = true
		default:
			return sc, args
		}
		args = args[1:]
	}
	return sc, args
}
