// Package cli implements the gpm command-line interface.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gpmworks/gpm/pkg/buildinfo"
	"github.com/gpmworks/gpm/pkg/vcs"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	In  io.Reader
	Out io.Writer

	// VCS is the version-control client commands run against. Nil means
	// go-git with the git binary as fallback.
	VCS vcs.Client
	// Prompter answers interactive questions. Nil means a terminal UI.
	Prompter Prompter
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

func (c *CLI) client() vcs.Client {
	if c.VCS == nil {
		c.VCS = vcs.NewGoGit(c.Logger)
	}
	return c.VCS
}

func (c *CLI) prompter() Prompter {
	if c.Prompter == nil {
		c.Prompter = teaPrompter{in: c.In, out: c.Out}
	}
	return c.Prompter
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "gpm",
		Short:         "gpm manages a workspace of interdependent git packages",
		Long:          `gpm clones a package and its dependencies side by side, links them together and runs git operations across all of them in dependency order.`,
		Version:       buildinfo.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddGroup(
		&cobra.Group{ID: groupWorkspace, Title: "Workspace:"},
		&cobra.Group{ID: groupGit, Title: "Git:"},
		&cobra.Group{ID: groupManifest, Title: "Manifests:"},
	)

	// Workspace
	root.AddCommand(c.initCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.selectCommand())
	root.AddCommand(c.linkCommand())
	root.AddCommand(c.unlinkCommand())
	root.AddCommand(c.materializeCommand())
	root.AddCommand(c.dematerializeCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.graphCommand())

	// Git
	root.AddCommand(c.addCommand())
	root.AddCommand(c.commitCommand())
	root.AddCommand(c.checkoutCommand())
	root.AddCommand(c.mergeCommand())
	root.AddCommand(c.pushCommand())
	root.AddCommand(c.pullCommand())
	root.AddCommand(c.startCommand())
	root.AddCommand(c.finishCommand())
	root.AddCommand(c.flowCommand())
	root.AddCommand(c.tagCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.discardCommand())
	root.AddCommand(c.gitCommand())

	// Manifests
	root.AddCommand(c.adjustCommand())
	root.AddCommand(c.cleanCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.pkgCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.printCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.adoptCommand())

	root.AddCommand(c.completionCommand())

	return root
}

const (
	groupWorkspace = "workspace"
	groupGit       = "git"
	groupManifest  = "manifest"
)
