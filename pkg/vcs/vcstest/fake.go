// Package vcstest provides an in-memory vcs.Client for tests.
package vcstest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/vcs"
)

// Repo is the simulated state of one repository.
type Repo struct {
	Branch     string
	Commit     string
	Branches   []string
	Remote     []string // Branches on origin
	Origin     string
	Counts     vcs.Counts
	Pushable   int
	Merging    bool
	Conflicted map[string]bool
	Config     map[string]string
	Staged     []string
	Tags       []string
	Log        []string // Commit messages, oldest first
}

// Fake is a scriptable vcs.Client. Every call is recorded in Calls as
// "op dir [args]".
type Fake struct {
	mu     sync.Mutex
	Repos  map[string]*Repo
	Calls  []string
	FailOn map[string]error // Keyed by "op" or "op dir"

	// OnClone runs after a clone is recorded, typically to write the
	// cloned package's manifest.
	OnClone func(url, dir, branch string) error
	// OnMerge decides a merge's outcome; nil merges cleanly.
	OnMerge func(dir, branch string) error

	commits int
}

var _ vcs.Client = (*Fake)(nil)

// New returns an empty fake.
func New() *Fake {
	return &Fake{Repos: make(map[string]*Repo), FailOn: make(map[string]error)}
}

// AddRepo registers a repository at dir on branch and returns it for
// further scripting.
func (f *Fake) AddRepo(dir, branch string) *Repo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addRepo(dir, branch)
}

func (f *Fake) addRepo(dir, branch string) *Repo {
	f.commits++
	r := &Repo{
		Branch:     branch,
		Commit:     hash(f.commits),
		Branches:   []string{branch},
		Remote:     []string{branch},
		Conflicted: make(map[string]bool),
		Config:     make(map[string]string),
	}
	f.Repos[dir] = r
	return r
}

func hash(n int) string { return fmt.Sprintf("%040x", n) }

// Called reports whether a call with the given prefix was recorded.
func (f *Fake) Called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (f *Fake) record(op, dir string, args ...string) error {
	f.Calls = append(f.Calls, strings.TrimSpace(strings.Join(append([]string{op, dir}, args...), " ")))
	if err, ok := f.FailOn[op+" "+dir]; ok {
		return err
	}
	if err, ok := f.FailOn[op]; ok {
		return err
	}
	return nil
}

// repo finds the repository holding dir, like git does for a
// subdirectory of a work tree.
func (f *Fake) repo(dir string) (*Repo, error) {
	for d := dir; ; d = filepath.Dir(d) {
		if r, ok := f.Repos[d]; ok {
			return r, nil
		}
		if filepath.Dir(d) == d {
			return nil, errors.New(errors.ErrCodeVCS, "not a repository: %s", dir)
		}
	}
}

// do records op and returns dir's repo, holding the lock until release.
func (f *Fake) do(op, dir string, args ...string) (*Repo, func(), error) {
	f.mu.Lock()
	if err := f.record(op, dir, args...); err != nil {
		f.mu.Unlock()
		return nil, nil, err
	}
	r, err := f.repo(dir)
	if err != nil {
		f.mu.Unlock()
		return nil, nil, err
	}
	return r, f.mu.Unlock, nil
}

func (f *Fake) CurrentBranch(dir string) (string, error) {
	r, done, err := f.do("branch", dir)
	if err != nil {
		return "", err
	}
	defer done()
	return r.Branch, nil
}

func (f *Fake) CurrentCommit(dir string) (string, error) {
	r, done, err := f.do("commit-id", dir)
	if err != nil {
		return "", err
	}
	defer done()
	return r.Commit, nil
}

func (f *Fake) Clone(ctx context.Context, url, dir, branch string) error {
	f.mu.Lock()
	if err := f.record("clone", dir, url, branch); err != nil {
		f.mu.Unlock()
		return err
	}
	if branch == "" {
		branch = "master"
	}
	r := f.addRepo(dir, branch)
	r.Origin = url
	hook := f.OnClone
	f.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if hook != nil {
		return hook(url, dir, branch)
	}
	return nil
}

func (f *Fake) Pull(ctx context.Context, dir string) error {
	_, done, err := f.do("pull", dir)
	if err != nil {
		return err
	}
	done()
	return nil
}

func (f *Fake) Push(ctx context.Context, dir string) error {
	r, done, err := f.do("push", dir)
	if err != nil {
		return err
	}
	defer done()
	r.Pushable = 0
	if !slices.Contains(r.Remote, r.Branch) {
		r.Remote = append(r.Remote, r.Branch)
	}
	return nil
}

func (f *Fake) FetchBranch(ctx context.Context, dir, branch string) error {
	r, done, err := f.do("fetch", dir, branch)
	if err != nil {
		return err
	}
	defer done()
	if !slices.Contains(r.Remote, branch) {
		return errors.New(errors.ErrCodeVCS, "no remote branch %s", branch)
	}
	if !slices.Contains(r.Branches, branch) {
		r.Branches = append(r.Branches, branch)
	}
	return nil
}

func (f *Fake) Checkout(ctx context.Context, dir, ref string, create bool) error {
	args := []string{ref}
	if create {
		args = append(args, "-b")
	}
	r, done, err := f.do("checkout", dir, args...)
	if err != nil {
		return err
	}
	defer done()
	switch {
	case create:
		if slices.Contains(r.Branches, ref) {
			return errors.New(errors.ErrCodeVCS, "branch %s already exists", ref)
		}
		r.Branches = append(r.Branches, ref)
	case slices.Contains(r.Branches, ref):
	case slices.Contains(r.Remote, ref):
		r.Branches = append(r.Branches, ref)
	case len(ref) == 40:
		r.Commit = ref
		r.Branch = "HEAD"
		return nil
	default:
		return errors.New(errors.ErrCodeVCS, "unknown revision %s", ref)
	}
	r.Branch = ref
	return nil
}

func (f *Fake) LocalBranches(dir string) ([]string, error) {
	r, done, err := f.do("branches", dir)
	if err != nil {
		return nil, err
	}
	defer done()
	return slices.Clone(r.Branches), nil
}

func (f *Fake) BranchExists(dir, branch string) (bool, error) {
	r, done, err := f.do("branch-exists", dir, branch)
	if err != nil {
		return false, err
	}
	defer done()
	return slices.Contains(r.Branches, branch), nil
}

func (f *Fake) DeleteBranch(ctx context.Context, dir, branch string, remote bool) error {
	op := "delete-branch"
	if remote {
		op = "delete-remote-branch"
	}
	r, done, err := f.do(op, dir, branch)
	if err != nil {
		return err
	}
	defer done()
	if remote {
		r.Remote = slices.DeleteFunc(r.Remote, func(b string) bool { return b == branch })
		return nil
	}
	if r.Branch == branch {
		return errors.New(errors.ErrCodePrecondition, "cannot delete checked out branch %s", branch)
	}
	r.Branches = slices.DeleteFunc(r.Branches, func(b string) bool { return b == branch })
	return nil
}

func (f *Fake) Tag(ctx context.Context, dir, name string) error {
	r, done, err := f.do("tag", dir, name)
	if err != nil {
		return err
	}
	defer done()
	r.Tags = append(r.Tags, name)
	return nil
}

func (f *Fake) AddAll(dir string) error {
	r, done, err := f.do("add-all", dir)
	if err != nil {
		return err
	}
	defer done()
	r.Counts.Staged += r.Counts.Modified
	r.Counts.Modified = 0
	r.Staged = append(r.Staged, ".")
	return nil
}

func (f *Fake) Add(dir, path string) error {
	r, done, err := f.do("add", dir, path)
	if err != nil {
		return err
	}
	defer done()
	r.Staged = append(r.Staged, path)
	r.Counts.Staged++
	delete(r.Conflicted, path)
	return nil
}

func (f *Fake) Commit(dir, message string) error {
	r, done, err := f.do("commit", dir, message)
	if err != nil {
		return err
	}
	defer done()
	f.commits++
	r.Commit = hash(f.commits)
	r.Log = append(r.Log, message)
	r.Counts.Staged = 0
	r.Staged = nil
	r.Merging = false
	r.Pushable++
	return nil
}

func (f *Fake) DiscardAll(ctx context.Context, dir string) error {
	r, done, err := f.do("discard", dir)
	if err != nil {
		return err
	}
	defer done()
	r.Counts = vcs.Counts{}
	r.Staged = nil
	return nil
}

func (f *Fake) ChangeCounts(dir string) (vcs.Counts, error) {
	r, done, err := f.do("status", dir)
	if err != nil {
		return vcs.Counts{}, err
	}
	defer done()
	return r.Counts, nil
}

func (f *Fake) PushableCommits(dir string) (int, error) {
	r, done, err := f.do("pushable", dir)
	if err != nil {
		return 0, err
	}
	defer done()
	return r.Pushable, nil
}

func (f *Fake) IsMerging(dir string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Repos[dir]
	return ok && r.Merging
}

func (f *Fake) FileConflicted(ctx context.Context, dir, path string) (bool, error) {
	r, done, err := f.do("conflicted", dir, path)
	if err != nil {
		return false, err
	}
	defer done()
	return r.Conflicted[path], nil
}

func (f *Fake) Merge(ctx context.Context, dir, branch string) error {
	r, done, err := f.do("merge", dir, branch)
	if err != nil {
		return err
	}
	hook := f.OnMerge
	r.Merging = true
	done()
	if hook != nil {
		return hook(dir, branch)
	}
	return nil
}

func (f *Fake) AbortMerge(ctx context.Context, dir string) error {
	r, done, err := f.do("merge-abort", dir)
	if err != nil {
		return err
	}
	defer done()
	r.Merging = false
	r.Conflicted = make(map[string]bool)
	return nil
}

func (f *Fake) Origin(dir string) (string, error) {
	r, done, err := f.do("origin", dir)
	if err != nil {
		return "", err
	}
	defer done()
	return r.Origin, nil
}

func (f *Fake) GetConfig(dir, key string) (string, error) {
	r, done, err := f.do("config-get", dir, key)
	if err != nil {
		return "", err
	}
	defer done()
	return r.Config[key], nil
}

func (f *Fake) SetConfig(dir, key, value string) error {
	r, done, err := f.do("config-set", dir, key, value)
	if err != nil {
		return err
	}
	defer done()
	r.Config[key] = value
	return nil
}

func (f *Fake) StartFeature(ctx context.Context, dir, name string) error {
	r, done, err := f.do("feature-start", dir, name)
	if err != nil {
		return err
	}
	defer done()
	branch := r.Config["gitflow.prefix.feature"] + name
	r.Branches = append(r.Branches, branch)
	r.Remote = append(r.Remote, branch)
	r.Branch = branch
	return nil
}

func (f *Fake) FinishFeature(ctx context.Context, dir, name string) error {
	r, done, err := f.do("feature-finish", dir, name)
	if err != nil {
		return err
	}
	defer done()
	branch := r.Config["gitflow.prefix.feature"] + name
	r.Branches = slices.DeleteFunc(r.Branches, func(b string) bool { return b == branch })
	r.Branch = r.Config["gitflow.branch.develop"]
	if r.Branch == "" {
		r.Branch = "develop"
	}
	return nil
}

func (f *Fake) Exec(ctx context.Context, dir string, args ...string) error {
	_, done, err := f.do("exec", dir, args...)
	if err != nil {
		return err
	}
	done()
	return nil
}
