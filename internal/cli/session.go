package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gpmworks/gpm/pkg/actions"
	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/observability"
	"github.com/gpmworks/gpm/pkg/perform"
	"github.com/gpmworks/gpm/pkg/workspace"
)

// scope holds the flags every walking command shares.
type scope struct {
	current bool
	all     bool
	prompt  bool
	list    bool
	noList  bool
}

func (s *scope) mode() perform.Mode { return perform.ModeFromFlags(s.current, s.all, s.prompt) }

func (s *scope) showList() bool { return s.list && !s.noList }

// addScopeFlags registers -c/-a/-p. With list set, --list/--no-list are
// registered as well.
func addScopeFlags(cmd *cobra.Command, s *scope, list bool) {
	cmd.Flags().BoolVarP(&s.current, "current", "c", false, "include only the package of the current directory")
	cmd.Flags().BoolVarP(&s.all, "all", "a", false, "include all packages")
	cmd.Flags().BoolVarP(&s.prompt, "prompt", "p", false, "prompt for packages to include for this command only")
	cmd.MarkFlagsMutuallyExclusive("current", "all", "prompt")
	if list {
		addListFlags(cmd, s)
	}
}

func addListFlags(cmd *cobra.Command, s *scope) {
	cmd.Flags().BoolVarP(&s.list, "list", "l", true, "display the package tree afterwards")
	cmd.Flags().BoolVar(&s.noList, "no-list", false, "do not display the package tree afterwards")
}

// session is a workspace opened for one command invocation.
type session struct {
	cli       *CLI
	ws        *workspace.Workspace
	env       *actions.Env
	performer *perform.Performer
	out       io.Writer
}

// open finds the workspace around the working directory.
func (c *CLI) open() (*session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	ws, err := workspace.Open(cwd, c.Logger)
	if err != nil {
		return nil, err
	}
	return c.session(ws), nil
}

func (c *CLI) session(ws *workspace.Workspace) *session {
	observability.SetWalkHooks(separatorHooks{out: c.Out})
	observability.SetLinkHooks(linkReporter{out: c.Out, root: ws.Root})
	return &session{
		cli:       c,
		ws:        ws,
		env:       actions.NewEnv(ws, c.client(), nil, c.Logger),
		performer: perform.New(c.Logger, ws, c.prompter()),
		out:       c.Out,
	}
}

func (s *session) load(ctx context.Context) (*graph.Graph, error) {
	return s.ws.Load(ctx)
}

// run walks the packages chosen by sc and prints the outcome.
func (s *session) run(ctx context.Context, action perform.Action, sc *scope, opts perform.Options) error {
	g, err := s.load(ctx)
	if err != nil {
		return err
	}
	report, err := s.performer.Run(ctx, g, action, sc.mode(), opts)
	if err != nil {
		return err
	}
	return s.finish(ctx, report, sc.showList())
}

// runSingle acts on the current package, or on one the user picks.
func (s *session) runSingle(ctx context.Context, action perform.Action, sc *scope) error {
	g, err := s.load(ctx)
	if err != nil {
		return err
	}
	report, err := s.performer.RunSingle(ctx, g, action, sc.current, perform.Options{})
	if err != nil {
		return err
	}
	return s.finish(ctx, report, sc.showList())
}

// finish prints the package tree when asked and turns failures into the
// command's error.
func (s *session) finish(ctx context.Context, report *perform.Report, list bool) error {
	logger := loggerFromContext(ctx)
	if list {
		if err := s.printTree(ctx, listOptions{}); err != nil {
			logger.Warn("failed to list packages", "err", err)
		}
	}
	if len(report.Skipped) > 0 {
		printWarning(s.out, "Skipped %d missing packages, run update to clone them", len(report.Skipped))
		printDetail(s.out, "%s", strings.Join(report.Skipped, ", "))
	}
	if !report.Failed() {
		logger.Debug("walk complete", "walk", report.WalkID,
			"packages", len(report.Visited), "took", report.Duration.Round(time.Millisecond))
		return nil
	}
	for _, f := range report.Failures {
		printError(s.out, "%s: %s", StylePackage.Render(f.Package), errors.UserMessage(f.Err))
	}
	return fmt.Errorf("%d of %d packages failed", len(report.Failures), len(report.Visited))
}

// separatorHooks prints a rule naming each package as a walk reaches it.
type separatorHooks struct {
	observability.NoopWalkHooks
	out io.Writer
}

func (h separatorHooks) OnNodeStart(_ context.Context, _ string, pkg string) {
	printSeparator(h.out, pkg)
}

// linkReporter prints each link the engine creates, materializes or
// restores, relative to the workspace root.
type linkReporter struct {
	out  io.Writer
	root string
}

func (r linkReporter) rel(path string) string {
	if p, err := filepath.Rel(r.root, path); err == nil {
		return filepath.ToSlash(p)
	}
	return path
}

func (r linkReporter) OnLinkCreated(_ context.Context, _ string, source, target string) {
	printDetail(r.out, "%s %s %s", r.rel(target), iconArrow, r.rel(source))
}

func (r linkReporter) OnMaterialized(_ context.Context, _ string, target string, files int) {
	printSuccess(r.out, "Materialized %s (%d files)", r.rel(target), files)
}

func (r linkReporter) OnDematerialized(_ context.Context, _ string, target string, files int) {
	printSuccess(r.out, "Copied %d files back from %s", files, r.rel(target))
}
