package vcs

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/gpmworks/gpm/pkg/errors"
)

// GoGit implements Client with go-git, falling back to the git binary for
// merges, git-flow and passthrough commands.
type GoGit struct {
	Logger *log.Logger
	// Progress receives clone, fetch and push progress. Nil discards it.
	Progress io.Writer

	run runner
}

var _ Client = (*GoGit)(nil)

// NewGoGit returns a client attached to the process's standard streams.
func NewGoGit(logger *log.Logger) *GoGit {
	if logger == nil {
		logger = log.Default()
	}
	return &GoGit{
		Logger:   logger,
		Progress: os.Stderr,
		run:      runner{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr},
	}
}

func open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeVCS, err, "failed to open repository %s", dir)
	}
	return repo, nil
}

func worktree(dir string) (*git.Repository, *git.Worktree, error) {
	repo, err := open(dir)
	if err != nil {
		return nil, nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeVCS, err, "failed to open worktree %s", dir)
	}
	return repo, wt, nil
}

func (g *GoGit) progress() io.Writer {
	if g.Progress == nil {
		return io.Discard
	}
	return g.Progress
}

func upToDate(err error) bool {
	return err == nil || stderrors.Is(err, git.NoErrAlreadyUpToDate)
}

// CurrentBranch returns the checked out branch, or "HEAD" when detached.
func (g *GoGit) CurrentBranch(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeVCS, err, "failed to resolve HEAD in %s", dir)
	}
	if !head.Name().IsBranch() {
		return "HEAD", nil
	}
	return head.Name().Short(), nil
}

func (g *GoGit) CurrentCommit(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeVCS, err, "failed to resolve HEAD in %s", dir)
	}
	return head.Hash().String(), nil
}

func (g *GoGit) Clone(ctx context.Context, url, dir, branch string) error {
	opts := &git.CloneOptions{URL: url, Progress: g.progress()}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}
	g.Logger.Debug("cloning", "url", url, "dir", dir, "branch", branch)
	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to clone %s", url)
	}
	return nil
}

// Pull fast-forwards the current branch from origin. Diverged histories
// and dirty worktrees are handed to git, which merges.
func (g *GoGit) Pull(ctx context.Context, dir string) error {
	repo, wt, err := worktree(dir)
	if err != nil {
		return err
	}
	head, err := repo.Head()
	if err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to resolve HEAD in %s", dir)
	}
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    git.DefaultRemoteName,
		ReferenceName: head.Name(),
		Progress:      g.progress(),
	})
	switch {
	case upToDate(err):
		return nil
	case stderrors.Is(err, git.ErrNonFastForwardUpdate), stderrors.Is(err, git.ErrUnstagedChanges):
		g.Logger.Debug("falling back to git pull", "dir", dir, "reason", err)
		return g.run.attached(ctx, dir, noEdit, "pull", "--no-rebase")
	default:
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to pull %s", dir)
	}
}

func (g *GoGit) push(ctx context.Context, dir string, specs ...config.RefSpec) error {
	repo, err := open(dir)
	if err != nil {
		return err
	}
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   specs,
		Progress:   g.progress(),
	})
	if !upToDate(err) {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to push %s", dir)
	}
	return nil
}

// Push pushes the current branch to the same name on origin.
func (g *GoGit) Push(ctx context.Context, dir string) error {
	branch, err := g.CurrentBranch(dir)
	if err != nil {
		return err
	}
	if branch == "HEAD" {
		return errors.New(errors.ErrCodePrecondition, "cannot push detached HEAD in %s", dir)
	}
	ref := plumbing.NewBranchReferenceName(branch)
	return g.push(ctx, dir, config.RefSpec(ref+":"+ref))
}

func (g *GoGit) FetchBranch(ctx context.Context, dir, branch string) error {
	repo, err := open(dir)
	if err != nil {
		return err
	}
	ref := plumbing.NewBranchReferenceName(branch)
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(ref + ":" + ref)},
		Progress:   g.progress(),
	})
	if !upToDate(err) {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to fetch %s in %s", branch, dir)
	}
	return nil
}

// Checkout switches dir to ref. A branch that only exists on origin gets a
// local tracking branch; anything else that resolves to a commit is
// checked out detached.
func (g *GoGit) Checkout(ctx context.Context, dir, ref string, create bool) error {
	repo, wt, err := worktree(dir)
	if err != nil {
		return err
	}
	if current, err := g.CurrentBranch(dir); err == nil && current == ref {
		return nil
	}

	branch := plumbing.NewBranchReferenceName(ref)
	opts := &git.CheckoutOptions{Branch: branch}
	tracked := false

	switch {
	case create:
		opts.Create = true
		tracked = true
	case refExists(repo, branch):
	case refExists(repo, plumbing.NewRemoteReferenceName(git.DefaultRemoteName, ref)):
		remote, _ := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, ref), true)
		opts.Create = true
		opts.Hash = remote.Hash()
		tracked = true
	default:
		hash, err := repo.ResolveRevision(plumbing.Revision(ref))
		if err != nil {
			return errors.Wrap(errors.ErrCodeVCS, err, "unknown revision %s in %s", ref, dir)
		}
		opts = &git.CheckoutOptions{Hash: *hash}
	}

	g.Logger.Debug("checking out", "dir", dir, "ref", ref, "create", create)
	if err := wt.Checkout(opts); err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to check out %s in %s", ref, dir)
	}
	if !tracked {
		return nil
	}
	return setTracking(repo, ref)
}

func setTracking(repo *git.Repository, branch string) error {
	cfg, err := repo.Config()
	if err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to read git config")
	}
	track(cfg, branch)
	if err := repo.SetConfig(cfg); err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to track %s", branch)
	}
	return nil
}

func refExists(repo *git.Repository, name plumbing.ReferenceName) bool {
	_, err := repo.Reference(name, true)
	return err == nil
}

func (g *GoGit) LocalBranches(dir string) ([]string, error) {
	repo, err := open(dir)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Branches()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeVCS, err, "failed to list branches in %s", dir)
	}
	var out []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		out = append(out, ref.Name().Short())
		return nil
	})
	return out, err
}

func (g *GoGit) BranchExists(dir, branch string) (bool, error) {
	repo, err := open(dir)
	if err != nil {
		return false, err
	}
	return refExists(repo, plumbing.NewBranchReferenceName(branch)), nil
}

func (g *GoGit) DeleteBranch(ctx context.Context, dir, branch string, remote bool) error {
	if remote {
		return g.push(ctx, dir, config.RefSpec(":"+plumbing.NewBranchReferenceName(branch)))
	}
	repo, err := open(dir)
	if err != nil {
		return err
	}
	if current, _ := g.CurrentBranch(dir); current == branch {
		return errors.New(errors.ErrCodePrecondition, "cannot delete checked out branch %s in %s", branch, dir)
	}
	name := plumbing.NewBranchReferenceName(branch)
	if !refExists(repo, name) {
		return errors.New(errors.ErrCodeNotFound, "branch %s not found in %s", branch, dir)
	}
	if err := repo.Storer.RemoveReference(name); err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to delete branch %s", branch)
	}
	if err := repo.DeleteBranch(branch); err != nil && !stderrors.Is(err, git.ErrBranchNotFound) {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to remove config of branch %s", branch)
	}
	return nil
}

// Tag creates a lightweight tag at HEAD and pushes it to origin.
func (g *GoGit) Tag(ctx context.Context, dir, name string) error {
	repo, err := open(dir)
	if err != nil {
		return err
	}
	head, err := repo.Head()
	if err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to resolve HEAD in %s", dir)
	}
	if _, err := repo.CreateTag(name, head.Hash(), nil); err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to create tag %s", name)
	}
	ref := plumbing.NewTagReferenceName(name)
	return g.push(ctx, dir, config.RefSpec(ref+":"+ref))
}

func (g *GoGit) AddAll(dir string) error {
	_, wt, err := worktree(dir)
	if err != nil {
		return err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to stage changes in %s", dir)
	}
	return nil
}

// Add stages path, which is relative to dir.
func (g *GoGit) Add(dir, path string) error {
	_, wt, err := worktree(dir)
	if err != nil {
		return err
	}
	if _, err := wt.Add(filepath.ToSlash(path)); err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to stage %s in %s", path, dir)
	}
	return nil
}

// Commit records the index. Concluding a merge is left to git so that the
// merge parents are recorded.
func (g *GoGit) Commit(dir, message string) error {
	if g.IsMerging(dir) {
		_, err := g.run.output(context.Background(), dir, nil, "commit", "--no-edit", "-m", message)
		return err
	}
	_, wt, err := worktree(dir)
	if err != nil {
		return err
	}
	if _, err := wt.Commit(message, &git.CommitOptions{}); err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to commit in %s", dir)
	}
	return nil
}

// DiscardAll resets tracked files to HEAD and removes untracked files and
// directories.
func (g *GoGit) DiscardAll(ctx context.Context, dir string) error {
	_, wt, err := worktree(dir)
	if err != nil {
		return err
	}
	if err := wt.Reset(&git.ResetOptions{Mode: git.HardReset}); err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to reset %s", dir)
	}
	_, err = g.run.output(ctx, dir, nil, "clean", "-f", "-d")
	return err
}

func (g *GoGit) ChangeCounts(dir string) (Counts, error) {
	_, wt, err := worktree(dir)
	if err != nil {
		return Counts{}, err
	}
	st, err := wt.Status()
	if err != nil {
		return Counts{}, errors.Wrap(errors.ErrCodeVCS, err, "failed to read status of %s", dir)
	}
	return countStatus(st), nil
}

// PushableCommits counts commits on the current branch that its origin
// counterpart lacks. A branch with no remote counterpart has none.
func (g *GoGit) PushableCommits(dir string) (int, error) {
	repo, err := open(dir)
	if err != nil {
		return 0, err
	}
	head, err := repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return 0, nil
	}
	remote, err := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, head.Name().Short()), true)
	if err != nil {
		return 0, nil
	}
	if remote.Hash() == head.Hash() {
		return 0, nil
	}

	known := make(map[plumbing.Hash]bool)
	rlog, err := repo.Log(&git.LogOptions{From: remote.Hash()})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeVCS, err, "failed to walk %s", remote.Name())
	}
	_ = rlog.ForEach(func(c *object.Commit) error {
		known[c.Hash] = true
		return nil
	})

	llog, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeVCS, err, "failed to walk %s", head.Name())
	}
	ahead := 0
	err = llog.ForEach(func(c *object.Commit) error {
		if !known[c.Hash] {
			ahead++
		}
		return nil
	})
	return ahead, err
}

func (g *GoGit) IsMerging(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, git.GitDirName, "MERGE_HEAD"))
	return err == nil
}

func (g *GoGit) FileConflicted(ctx context.Context, dir, path string) (bool, error) {
	out, err := g.run.output(ctx, dir, nil, "status", "--porcelain", "--", path)
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(out, "\n") {
		if conflictCode(line) {
			return true, nil
		}
	}
	return false, nil
}

func (g *GoGit) Merge(ctx context.Context, dir, branch string) error {
	_, err := g.run.output(ctx, dir, noEdit, "merge", branch)
	return err
}

func (g *GoGit) AbortMerge(ctx context.Context, dir string) error {
	_, err := g.run.output(ctx, dir, nil, "merge", "--abort")
	return err
}

func (g *GoGit) Origin(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeVCS, err, "no origin in %s", dir)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", errors.New(errors.ErrCodeVCS, "origin of %s has no url", dir)
	}
	return urls[0], nil
}

func (g *GoGit) GetConfig(dir, key string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	return getConfig(repo, key)
}

func (g *GoGit) SetConfig(dir, key, value string) error {
	repo, err := open(dir)
	if err != nil {
		return err
	}
	return setConfig(repo, key, value)
}

// StartFeature starts a git-flow feature and publishes it with upstream
// tracking.
func (g *GoGit) StartFeature(ctx context.Context, dir, name string) error {
	if err := g.run.attached(ctx, dir, nil, "flow", "feature", "start", name); err != nil {
		return err
	}
	if err := g.Push(ctx, dir); err != nil {
		return err
	}
	repo, err := open(dir)
	if err != nil {
		return err
	}
	branch, err := g.CurrentBranch(dir)
	if err != nil {
		return err
	}
	return setTracking(repo, branch)
}

func (g *GoGit) FinishFeature(ctx context.Context, dir, name string) error {
	return g.run.attached(ctx, dir, noEdit, "flow", "feature", "finish", name)
}

func (g *GoGit) Exec(ctx context.Context, dir string, args ...string) error {
	return g.run.attached(ctx, dir, nil, args...)
}
