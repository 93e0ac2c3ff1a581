package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gpmworks/gpm/pkg/perform"
)

// errCancelled is returned when the user quits a prompt.
var errCancelled = stderrors.New("cancelled")

// Prompter asks the user questions. It extends the package pickers the
// performer needs with yes/no and free-text questions.
type Prompter interface {
	perform.Prompter
	Confirm(ctx context.Context, question string) (bool, error)
	Input(ctx context.Context, question, initial string) (string, error)
}

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// teaPrompter runs each question as a small bubbletea program.
type teaPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p teaPrompter) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	prog := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(p.in), tea.WithOutput(p.out))
	return prog.Run()
}

func (p teaPrompter) SelectMany(ctx context.Context, title string, options, preselected []string) ([]string, error) {
	final, err := p.run(ctx, newMultiSelectModel(title, options, preselected))
	if err != nil {
		return nil, err
	}
	m, ok := final.(multiSelectModel)
	if !ok || m.cancelled {
		return nil, errCancelled
	}
	return m.selection(), nil
}

func (p teaPrompter) SelectOne(ctx context.Context, title string, options []string) (string, error) {
	final, err := p.run(ctx, singleSelectModel{title: title, options: options})
	if err != nil {
		return "", err
	}
	m, ok := final.(singleSelectModel)
	if !ok || m.chosen == "" {
		return "", errCancelled
	}
	return m.chosen, nil
}

func (p teaPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	final, err := p.run(ctx, confirmModel{question: question})
	if err != nil {
		return false, err
	}
	m, ok := final.(confirmModel)
	if !ok {
		return false, errCancelled
	}
	return m.answer, nil
}

func (p teaPrompter) Input(ctx context.Context, question, initial string) (string, error) {
	final, err := p.run(ctx, inputModel{question: question, value: []rune(initial)})
	if err != nil {
		return "", err
	}
	m, ok := final.(inputModel)
	if !ok || m.cancelled {
		return "", errCancelled
	}
	return strings.TrimSpace(string(m.value)), nil
}

// =============================================================================
// multiSelectModel - pick any number of packages
// =============================================================================

type multiSelectModel struct {
	title     string
	options   []string
	checked   []bool
	cursor    int
	cancelled bool
}

func newMultiSelectModel(title string, options, preselected []string) multiSelectModel {
	m := multiSelectModel{title: title, options: options, checked: make([]bool, len(options))}
	for i, o := range options {
		m.checked[i] = slices.Contains(preselected, o)
	}
	return m
}

func (m multiSelectModel) selection() []string {
	out := []string{}
	for i, o := range m.options {
		if m.checked[i] {
			out = append(out, o)
		}
	}
	return out
}

func (m multiSelectModel) Init() tea.Cmd { return nil }

func (m multiSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.options) > 0 {
			m.checked = slices.Clone(m.checked)
			m.checked[m.cursor] = !m.checked[m.cursor]
		}
	case "a":
		all := !slices.Contains(m.checked, false)
		m.checked = slices.Clone(m.checked)
		for i := range m.checked {
			m.checked[i] = !all
		}
	case "enter":
		return m, tea.Quit
	}
	return m, nil
}

func (m multiSelectModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ confirm  q quit"))
	b.WriteString("\n\n")
	for i, o := range m.options {
		cursor, box := "  ", "[ ]"
		if i == m.cursor {
			cursor = "▸ "
		}
		if m.checked[i] {
			box = "[" + StyleSuccess.Render(iconSuccess) + "]"
		}
		line := fmt.Sprintf("%s%s %s", cursor, box, o)
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// singleSelectModel - pick exactly one package
// =============================================================================

type singleSelectModel struct {
	title   string
	options []string
	cursor  int
	chosen  string
}

func (m singleSelectModel) Init() tea.Cmd { return nil }

func (m singleSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.options) > 0 {
			m.chosen = m.options[m.cursor]
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m singleSelectModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")
	for i, o := range m.options {
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + o))
		} else {
			b.WriteString(listNormalStyle.Render("  " + o))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// confirmModel - yes/no question, defaulting to no
// =============================================================================

type confirmModel struct {
	question string
	answer   bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch strings.ToLower(key.String()) {
	case "y":
		m.answer = true
		return m, tea.Quit
	case "n", "enter", "q", "esc", "ctrl+c":
		m.answer = false
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	return StyleWarning.Render(m.question) + " " + listDimStyle.Render("(y/N)") + "\n"
}

// =============================================================================
// inputModel - single line of text
// =============================================================================

type inputModel struct {
	question  string
	value     []rune
	cancelled bool
}

func (m inputModel) Init() tea.Cmd { return nil }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyEnter:
		return m, tea.Quit
	case tea.KeyBackspace:
		if len(m.value) > 0 {
			m.value = m.value[:len(m.value)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.value = append(slices.Clone(m.value), key.Runes...)
	}
	return m, nil
}

func (m inputModel) View() string {
	return StyleTitle.Render(m.question) + " " + StyleValue.Render(string(m.value)) + "█\n"
}
