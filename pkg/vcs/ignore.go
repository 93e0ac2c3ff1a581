package vcs

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gpmworks/gpm/pkg/errors"
)

// IgnoreFile is the name of git's per-directory ignore file.
const IgnoreFile = ".gitignore"

// Ignore appends entry to dir's ignore file unless a line already covers
// it, then stages the file. An existing pattern such as "lib/**" covers
// "lib/core".
func Ignore(c Client, dir, entry string) error {
	path := filepath.Join(dir, IgnoreFile)
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodePrecondition, err, "failed to read %s", path)
	}
	if covered(data, entry) {
		return nil
	}

	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(entry + "\n")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, err, "failed to write %s", path)
	}
	return c.Add(dir, IgnoreFile)
}

func covered(data []byte, entry string) bool {
	target := strings.TrimPrefix(entry, "/")
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		if line == entry {
			return true
		}
		pattern := strings.TrimSuffix(strings.TrimPrefix(line, "/"), "/")
		if ok, err := doublestar.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}

// GitIgnore adapts a Client to the single-method ignorer used when links
// are created.
type GitIgnore struct {
	Client Client
}

func (g GitIgnore) Ignore(dir, entry string) error { return Ignore(g.Client, dir, entry) }
