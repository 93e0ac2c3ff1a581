package cli

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/gpmworks/gpm/pkg/actions"
	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/manifest"
	"github.com/gpmworks/gpm/pkg/perform"
)

func (c *CLI) adjustCommand() *cobra.Command {
	var (
		sc         scope
		dependents bool
	)
	cmd := c.walkCommand(&cobra.Command{
		Use:   "adjust",
		Short: "Pin dependencies to the branches and commits checked out",
		Long: `Rewrite the manifests of selected packages so every dependency points at the
branch and commit currently checked out. With --dependents the manifests of
packages depending on the selected ones are adjusted instead.`,
		GroupID: groupManifest,
		Args:    cobra.NoArgs,
	}, &sc, perform.Options{}, func(s *session, _ []string) (perform.Action, error) {
		return actions.Adjust{Env: s.env, Dependents: dependents}, nil
	})
	cmd.Flags().BoolVarP(&dependents, "dependents", "d", false, "adjust the manifests of dependent packages instead")
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) cleanCommand() *cobra.Command {
	var sc scope
	cmd := &cobra.Command{
		Use:     "clean",
		Short:   "Remove redundant dependencies",
		Long:    `Remove dependencies a package already reaches through one of its other dependencies.`,
		GroupID: groupManifest,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.open()
			if err != nil {
				return err
			}
			clean := &actions.Clean{Env: s.env}
			quiet := sc
			quiet.list = false
			if err := s.run(ctx, clean, &quiet, perform.Options{}); err != nil {
				return err
			}
			if len(clean.Changed) == 0 {
				printInfo(c.Out, "No redundant dependencies detected.")
				return nil
			}
			for _, name := range clean.Changed {
				printSuccess(c.Out, "Cleaned %s", StylePackage.Render(name))
			}
			if sc.showList() {
				return s.printTree(ctx, listOptions{})
			}
			return nil
		},
	}
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) resolveCommand() *cobra.Command {
	var (
		sc           scope
		ours, theirs bool
	)
	cmd := c.walkCommand(&cobra.Command{
		Use:     "resolve",
		Short:   "Resolve merge conflicts in manifests of selected packages",
		Long:    `Replace every conflict block in the manifests of selected packages with one side, ours unless --theirs is given, and stage the result.`,
		GroupID: groupManifest,
		Args:    cobra.NoArgs,
	}, &sc, perform.Options{}, func(s *session, _ []string) (perform.Action, error) {
		side := manifest.Ours
		if theirs && !ours {
			side = manifest.Theirs
		}
		return actions.Resolve{Env: s.env, Side: side}, nil
	})
	cmd.Flags().BoolVarP(&ours, "ours", "o", false, "keep our side (HEAD)")
	cmd.Flags().BoolVarP(&theirs, "theirs", "t", false, "keep their side (the merged branch)")
	cmd.MarkFlagsMutuallyExclusive("ours", "theirs")
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) pkgCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pkg",
		Short:   "Edit the dependencies of packages",
		GroupID: groupManifest,
	}
	cmd.AddCommand(c.pkgAddCommand())
	cmd.AddCommand(c.pkgUpdateCommand())
	return cmd
}

func (c *CLI) pkgAddCommand() *cobra.Command {
	var (
		sc     scope
		branch string
	)
	cmd := &cobra.Command{
		Use:   "add [names...]",
		Short: "Add dependencies to the current package",
		Long: `Add dependencies to the package of the current directory, or to the selected
packages with -a or -p. Each dependency is pinned to the branch and commit it
has checked out unless --branch is given. Without names you are prompted.`,
		ValidArgsFunction: c.completePackages,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.addDependencies(cmd.Context(), &sc, args, branch, !sc.all && !sc.prompt)
		},
	}
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to pin instead of the one checked out")
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) importCommand() *cobra.Command {
	var sc scope
	cmd := &cobra.Command{
		Use:   "import [name] [branch]",
		Short: "Add a dependency to selected packages",
		Long: `Add a dependency to every selected package. The branch defaults to the one
the dependency has checked out; without a name you are prompted.`,
		GroupID: groupManifest,
		Args:    cobra.MaximumNArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return c.completePackages(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var names []string
			var branch string
			if len(args) > 0 {
				names = args[:1]
			}
			if len(args) > 1 {
				branch = args[1]
			}
			return c.addDependencies(cmd.Context(), &sc, names, branch, false)
		},
	}
	addScopeFlags(cmd, &sc, true)
	return cmd
}

// addDependencies runs AddDependencies on one package when single is set,
// else on the packages sc selects.
func (c *CLI) addDependencies(ctx context.Context, sc *scope, names []string, branch string, single bool) error {
	s, err := c.open()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		g, err := s.load(ctx)
		if err != nil {
			return err
		}
		if names, err = c.prompter().SelectMany(ctx, "Select dependencies to add", packageNames(g), nil); err != nil {
			return err
		}
		if len(names) == 0 {
			return nil
		}
	}
	action := actions.AddDependencies{Env: s.env, Names: names, Branch: branch}
	if single {
		one := *sc
		one.current = true
		return s.runSingle(ctx, action, &one)
	}
	return s.run(ctx, action, sc, perform.Options{})
}

func (c *CLI) pkgUpdateCommand() *cobra.Command {
	var sc scope
	cmd := c.walkCommand(&cobra.Command{
		Use:     "update [branch]",
		Aliases: []string{"up"},
		Short:   "Point dependents of selected packages at a branch",
		Long: `Point the manifests of packages depending on the selected ones at the given
branch. Without a branch they follow what is checked out, like adjust -d.`,
		Args: cobra.MaximumNArgs(1),
	}, &sc, perform.Options{}, func(s *session, args []string) (perform.Action, error) {
		a := actions.SetBranchOfDependents{Env: s.env}
		if len(args) > 0 {
			a.Branch = args[0]
		}
		return a, nil
	})
	addScopeFlags(cmd, &sc, true)
	return cmd
}

func (c *CLI) printCommand() *cobra.Command {
	var sc scope
	cmd := c.walkCommand(&cobra.Command{
		Use:     "print",
		Short:   "Print the manifests of selected packages",
		GroupID: groupManifest,
		Args:    cobra.NoArgs,
	}, &sc, perform.Options{}, func(s *session, _ []string) (perform.Action, error) {
		return actions.Print{Env: s.env, Out: s.out}, nil
	})
	addScopeFlags(cmd, &sc, false)
	return cmd
}

func (c *CLI) convertCommand() *cobra.Command {
	var (
		sc scope
		to string
	)
	cmd := c.walkCommand(&cobra.Command{
		Use:   "convert",
		Short: "Switch the manifests of selected packages to another format",
		Long: `Rewrite the manifests of selected packages as package.yaml or package.toml
and stage the rename.`,
		GroupID: groupManifest,
		Args:    cobra.NoArgs,
	}, &sc, perform.Options{}, func(s *session, _ []string) (perform.Action, error) {
		codec, err := manifest.CodecByType(to, manifest.DefaultCodecs()...)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "cannot convert")
		}
		return actions.Convert{Env: s.env, To: codec}, nil
	})
	cmd.Flags().StringVar(&to, "to", "toml", "target format: yaml or toml")
	addScopeFlags(cmd, &sc, true)
	return cmd
}

const createBranch = "<create new>"

func (c *CLI) adoptCommand() *cobra.Command {
	var sc scope
	cmd := &cobra.Command{
		Use:   "adopt [repo]",
		Short: "Turn an existing git repository into a workspace package",
		Long: `Clone a repository that has no manifest yet into the workspace, pick the
branch to use, then choose its dependencies and the packages that should
depend on it.`,
		GroupID: groupManifest,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.open()
			if err != nil {
				return err
			}
			var url string
			if len(args) > 0 {
				url = args[0]
			} else if url, err = c.prompter().Input(ctx, "Git URL of repository to adopt:", ""); err != nil {
				return err
			}
			if err := s.adopt(ctx, url); err != nil {
				return err
			}
			if sc.showList() {
				return s.printTree(ctx, listOptions{})
			}
			return nil
		},
	}
	addListFlags(cmd, &sc)
	return cmd
}

func (s *session) adopt(ctx context.Context, url string) error {
	name, err := manifest.NameFromRepoURL(url)
	if err != nil {
		return err
	}
	dir := s.ws.PackageDir(name)
	if s.ws.Manifests.Exists(dir) {
		return errors.New(errors.ErrCodeInvalidInput, "%s is already a package", name)
	}

	printInfo(s.out, "Cloning %s", StylePackage.Render(name))
	if err := s.env.VCS.Clone(ctx, url, dir, ""); err != nil {
		return err
	}
	branch, err := s.chooseBranch(ctx, dir)
	if err != nil {
		return err
	}

	g, err := s.load(ctx)
	if err != nil {
		return err
	}
	deps, err := s.cli.prompter().SelectMany(ctx, "Select packages to add as dependencies", packageNames(g, name), nil)
	if err != nil {
		return err
	}
	excluded := append([]string{name}, deps...)
	for _, d := range deps {
		if n, ok := g.Node(d); ok {
			for _, t := range g.Transitive(n) {
				excluded = append(excluded, t.Name)
			}
		}
	}
	dependents, err := s.cli.prompter().SelectMany(ctx, "Select packages to make dependent on this package", packageNames(g, excluded...), nil)
	if err != nil {
		return err
	}

	m := &manifest.Manifest{File: filepath.Join(dir, manifest.FileName), Dir: dir, Name: name}
	if err := s.ws.Manifests.Write(m); err != nil {
		return err
	}
	n, err := graph.NewNode(m)
	if err != nil {
		return err
	}
	if len(deps) > 0 {
		add := actions.AddDependencies{Env: s.env, Names: deps}
		if err := s.performer.ApplyOne(ctx, g, n, add).Err(); err != nil {
			return err
		}
	} else if err := s.env.VCS.Add(dir, manifest.FileName); err != nil {
		return err
	}

	if len(dependents) == 0 {
		return nil
	}
	add := actions.AddDependencies{Env: s.env, Names: []string{name}, Branch: branch}
	report := s.performer.Perform(ctx, g, add, perform.Names(dependents...), perform.Options{})
	return report.Err()
}

// chooseBranch asks which branch of a fresh clone the package should use
// and checks it out, creating it when asked to.
func (s *session) chooseBranch(ctx context.Context, dir string) (string, error) {
	branches, err := s.env.VCS.LocalBranches(dir)
	if err != nil {
		return "", err
	}
	p := s.cli.prompter()
	branch, err := p.SelectOne(ctx, "Select branch to use", append([]string{createBranch}, branches...))
	if err != nil {
		return "", err
	}
	create := branch == createBranch
	if create {
		if branch, err = p.Input(ctx, "Name of branch to create:", "develop"); err != nil {
			return "", err
		}
		if branch == "" || slices.Contains(branches, branch) {
			return "", errors.New(errors.ErrCodeInvalidInput, "invalid branch name %q", branch)
		}
	}
	return branch, s.env.VCS.Checkout(ctx, dir, branch, create)
}
