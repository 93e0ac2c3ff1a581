package manifest

import (
	"strings"
)

// Side selects which half of a merge-conflict block is kept.
type Side int

const (
	Ours Side = iota
	Theirs
)

func (s Side) String() string {
	if s == Theirs {
		return "theirs"
	}
	return "ours"
}

const (
	markerStart = "<<<<<<< "
	markerBase  = "||||||| "
	markerSep   = "======="
	markerEnd   = ">>>>>>> "
)

// ResolveConflicts replaces every merge-conflict block in text with the
// selected side. It reports whether any block was found. An unterminated
// block is left untouched.
func ResolveConflicts(text string, side Side) (string, bool) {
	lines := strings.SplitAfter(text, "\n")

	var out strings.Builder
	out.Grow(len(text))

	const (
		normal = iota
		ours
		base
		theirs
	)

	state := normal
	var block, kept []string
	conflicted := false

	for _, line := range lines {
		bare := strings.TrimRight(line, "\r\n")
		switch state {
		case normal:
			if strings.HasPrefix(bare, markerStart) {
				state = ours
				block = []string{line}
				kept = kept[:0]
				continue
			}
			out.WriteString(line)
		case ours, base, theirs:
			block = append(block, line)
			switch {
			case state != theirs && strings.HasPrefix(bare, markerBase):
				state = base
			case state != theirs && bare == markerSep:
				state = theirs
			case state == theirs && strings.HasPrefix(bare, markerEnd):
				for _, k := range kept {
					out.WriteString(k)
				}
				conflicted = true
				state = normal
			case state == ours && side == Ours, state == theirs && side == Theirs:
				kept = append(kept, line)
			}
		}
	}

	if state != normal {
		for _, l := range block {
			out.WriteString(l)
		}
	}
	return out.String(), conflicted
}
