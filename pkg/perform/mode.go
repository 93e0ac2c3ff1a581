package perform

import (
	"context"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/graph"
)

// Mode chooses which packages a command acts on.
type Mode int

const (
	// ModeSelection walks the saved selection, or everything when nothing
	// is selected.
	ModeSelection Mode = iota
	// ModeCurrent acts on the package containing the working directory only.
	ModeCurrent
	// ModeAll walks every package.
	ModeAll
	// ModePrompt asks which packages to walk.
	ModePrompt
)

func (m Mode) String() string {
	switch m {
	case ModeCurrent:
		return "current"
	case ModeAll:
		return "all"
	case ModePrompt:
		return "prompt"
	default:
		return "selection"
	}
}

// ModeFromFlags maps the mutually exclusive --current, --all and --prompt
// flags to a mode. Current wins over all, all over prompt.
func ModeFromFlags(current, all, prompt bool) Mode {
	switch {
	case current:
		return ModeCurrent
	case all:
		return ModeAll
	case prompt:
		return ModePrompt
	default:
		return ModeSelection
	}
}

// Prompter asks the user to pick packages.
type Prompter interface {
	SelectMany(ctx context.Context, title string, options, preselected []string) ([]string, error)
	SelectOne(ctx context.Context, title string, options []string) (string, error)
}

func nodeNames(g *graph.Graph) []string {
	nodes := g.Nodes()
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

// Run acts on the packages chosen by mode. Missing-data and prompt errors
// abort before any package is touched; action errors end up in the report.
func (p *Performer) Run(ctx context.Context, g *graph.Graph, action Action, mode Mode, opts Options) (*Report, error) {
	switch {
	case mode == ModeCurrent:
		n, err := g.RequiredCurrent()
		if err != nil {
			return nil, err
		}
		return p.ApplyOne(ctx, g, n, action), nil
	case mode == ModeAll || len(g.Selection()) == 0:
		return p.Perform(ctx, g, action, All(), opts), nil
	case mode == ModePrompt:
		if p.Prompter == nil {
			return nil, errors.New(errors.ErrCodeInternal, "no prompter configured")
		}
		names, err := p.Prompter.SelectMany(ctx, "Select packages", nodeNames(g), nil)
		if err != nil {
			return nil, err
		}
		return p.Perform(ctx, g, action, Names(names...), opts), nil
	default:
		return p.Perform(ctx, g, action, Selected(), opts), nil
	}
}

// RunSingle acts on exactly one package: the current one, or one picked
// through the prompter. Used by operations that must never touch several
// packages at once.
func (p *Performer) RunSingle(ctx context.Context, g *graph.Graph, action Action, current bool, opts Options) (*Report, error) {
	if current {
		n, err := g.RequiredCurrent()
		if err != nil {
			return nil, err
		}
		return p.ApplyOne(ctx, g, n, action), nil
	}
	if p.Prompter == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no prompter configured")
	}
	name, err := p.Prompter.SelectOne(ctx, "Select single package", nodeNames(g))
	if err != nil {
		return nil, err
	}
	return p.Perform(ctx, g, action, Names(name), opts), nil
}
