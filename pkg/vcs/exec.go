package vcs

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/gpmworks/gpm/pkg/errors"
)

// runner shells out to the git binary for the operations go-git does not
// implement: three-way merges, git-flow and interactive passthrough.
type runner struct {
	bin    string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (r runner) binary() string {
	if r.bin == "" {
		return "git"
	}
	return r.bin
}

// output runs git in dir and returns its trimmed stdout.
func (r runner) output(ctx context.Context, dir string, env []string, args ...string) (string, error) {
	if _, err := exec.LookPath(r.binary()); err != nil {
		return "", errors.Wrap(errors.ErrCodeVCS, err, "git executable not found")
	}
	cmd := exec.CommandContext(ctx, r.binary(), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return "", errors.Wrap(errors.ErrCodeVCS, err, "git %s in %s: %s",
			strings.Join(args, " "), dir, strings.TrimSpace(errBuf.String()))
	}
	return strings.TrimSpace(out.String()), nil
}

// attached runs git in dir wired to the runner's streams.
func (r runner) attached(ctx context.Context, dir string, env []string, args ...string) error {
	cmd := exec.CommandContext(ctx, r.binary(), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "git %s in %s", strings.Join(args, " "), dir)
	}
	return nil
}

// noEdit keeps merges from opening an editor for the commit message.
var noEdit = []string{"GIT_MERGE_AUTOEDIT=no"}
