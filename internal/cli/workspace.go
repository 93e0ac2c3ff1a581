package cli

import (
	"context"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/gpmworks/gpm/pkg/actions"
	"github.com/gpmworks/gpm/pkg/perform"
	"github.com/gpmworks/gpm/pkg/vcs"
	"github.com/gpmworks/gpm/pkg/workspace"
)

func addFlowFlags(cmd *cobra.Command, fc *vcs.FlowConfig) {
	cmd.Flags().StringVar(&fc.Master, "master", "", "master branch to use for git flow")
	cmd.Flags().StringVar(&fc.Develop, "develop", "", "develop branch to use for git flow")
	cmd.Flags().StringVar(&fc.User, "user", "", "user name to use for git flow feature branches")
}

func (c *CLI) initCommand() *cobra.Command {
	var (
		sc     scope
		branch string
		flow   vcs.FlowConfig
	)
	cmd := &cobra.Command{
		Use:   "init [repo]",
		Short: "Make the current directory a workspace and clone the main package",
		Long: `Configure the current directory as workspace root, clone the main package and
its dependencies and create links between them.

The repository URL has the form git@github.com:account/name.git and is
prompted for when omitted.`,
		GroupID: groupWorkspace,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var repo string
			if len(args) > 0 {
				repo = args[0]
			} else {
				var err error
				if repo, err = c.prompter().Input(ctx, "Main package Git repository URL:", ""); err != nil {
					return err
				}
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			ws, err := workspace.Init(cwd, repo, branch, c.Logger)
			if err != nil {
				return err
			}
			printSuccess(c.Out, "Initialized workspace in %s", ws.Root)

			sc.all = true
			return c.session(ws).update(ctx, &sc, true, true, flow)
		},
	}
	cmd.Flags().StringVarP(&branch, "branch", "b", workspace.DefaultBranch, "main package branch to check out")
	addFlowFlags(cmd, &flow)
	addListFlags(cmd, &sc)
	return cmd
}

func (c *CLI) updateCommand() *cobra.Command {
	var (
		sc              scope
		noPull, noLinks bool
		flow            vcs.FlowConfig
	)
	cmd := &cobra.Command{
		Use:     "update",
		Aliases: []string{"up"},
		Short:   "Clone or pull packages and create links",
		Long: `Pull every selected package, cloning the ones not checked out yet, then
recreate their links. Packages cloned along the way are walked too, so a
single update brings in the whole dependency tree.`,
		GroupID: groupWorkspace,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open()
			if err != nil {
				return err
			}
			return s.update(cmd.Context(), &sc, !noPull, !noLinks, flow)
		},
	}
	cmd.Flags().BoolVar(&noPull, "no-pull", false, "do not clone or pull packages")
	cmd.Flags().BoolVar(&noLinks, "no-links", false, "do not create links")
	addFlowFlags(cmd, &flow)
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (s *session) update(ctx context.Context, sc *scope, pull, link bool, flow vcs.FlowConfig) error {
	p := newProgress(s.cli.Logger)
	quiet := *sc
	quiet.list = false
	if pull {
		opts := perform.Options{IncludeMissing: true, Reload: true}
		if err := s.run(ctx, actions.Update{Env: s.env, Flow: flow}, &quiet, opts); err != nil {
			return err
		}
	}
	if link {
		if err := s.run(ctx, actions.Link{Env: s.env}, &quiet, perform.Options{}); err != nil {
			return err
		}
	}
	p.done("workspace updated")
	if sc.showList() {
		return s.printTree(ctx, listOptions{})
	}
	return nil
}

func (c *CLI) selectCommand() *cobra.Command {
	var (
		sc   scope
		none bool
	)
	cmd := &cobra.Command{
		Use:     "select",
		Aliases: []string{"s"},
		Short:   "Choose which packages commands include by default",
		GroupID: groupWorkspace,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.open()
			if err != nil {
				return err
			}
			g, err := s.load(ctx)
			if err != nil {
				return err
			}
			names := packageNames(g)

			var selection []string
			switch {
			case sc.all:
				selection = names
			case none:
				selection = []string{}
			case sc.current:
				n, err := g.RequiredCurrent()
				if err != nil {
					return err
				}
				selection = []string{n.Name}
			default:
				saved, err := s.ws.Selection()
				if err != nil {
					return err
				}
				saved = slices.DeleteFunc(saved, func(n string) bool { return !slices.Contains(names, n) })
				if selection, err = c.prompter().SelectMany(ctx, "Select packages to include in workspace", names, saved); err != nil {
					return err
				}
			}
			if err := s.ws.SetSelection(selection); err != nil {
				return err
			}
			if sc.showList() {
				return s.printTree(ctx, listOptions{})
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&sc.current, "current", "c", false, "select only the package of the current directory")
	cmd.Flags().BoolVarP(&sc.all, "all", "a", false, "select all packages")
	cmd.Flags().BoolVarP(&none, "none", "n", false, "deselect all packages")
	cmd.MarkFlagsMutuallyExclusive("current", "all", "none")
	addListFlags(cmd, &sc)
	return cmd
}

func (c *CLI) linkCommand() *cobra.Command {
	var sc scope
	cmd := &cobra.Command{
		Use:     "link",
		Short:   "Create links to dependencies in selected packages",
		GroupID: groupWorkspace,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open()
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), actions.Link{Env: s.env}, &sc, perform.Options{})
		},
	}
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) unlinkCommand() *cobra.Command {
	var sc scope
	cmd := &cobra.Command{
		Use:     "unlink",
		Short:   "Remove links to dependencies in selected packages",
		GroupID: groupWorkspace,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open()
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), actions.Unlink{Env: s.env}, &sc, perform.Options{})
		},
	}
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) materializeCommand() *cobra.Command {
	var sc scope
	cmd := &cobra.Command{
		Use:     "materialize",
		Aliases: []string{"mat"},
		Short:   "Replace the links of one package with editable copies",
		Long: `Replace the dependency links of a single package with copies of the linked
files, for tools that do not follow links. Run dematerialize to copy edits
back and restore the links.`,
		GroupID: groupWorkspace,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open()
			if err != nil {
				return err
			}
			return s.runSingle(cmd.Context(), actions.Materialize{Env: s.env}, &sc)
		},
	}
	cmd.Flags().BoolVarP(&sc.current, "current", "c", false, "use the package of the current directory instead of prompting")
	addListFlags(cmd, &sc)
	return cmd
}

func (c *CLI) dematerializeCommand() *cobra.Command {
	var sc scope
	cmd := &cobra.Command{
		Use:     "dematerialize",
		Aliases: []string{"demat"},
		Short:   "Copy materialized files back and restore links",
		GroupID: groupWorkspace,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open()
			if err != nil {
				return err
			}
			return s.runSingle(cmd.Context(), actions.Dematerialize{Env: s.env}, &sc)
		},
	}
	cmd.Flags().BoolVarP(&sc.current, "current", "c", false, "use the package of the current directory instead of prompting")
	addListFlags(cmd, &sc)
	return cmd
}
