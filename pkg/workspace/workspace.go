package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gpmworks/gpm/pkg/errors"
	"github.com/gpmworks/gpm/pkg/graph"
	"github.com/gpmworks/gpm/pkg/manifest"
)

const (
	// ConfigFile marks the root directory of a workspace.
	ConfigFile = "gpm.yaml"
	// RootEnv overrides the workspace root lookup.
	RootEnv = "GPM_ROOT"
	// DefaultBranch is used for the main package when none is configured.
	DefaultBranch = "master"
)

// Workspace is a directory holding one checkout per package, side by side,
// plus the gpm.yaml configuration.
type Workspace struct {
	Root      string
	Config    *Config
	Manifests *manifest.Store
	Logger    *log.Logger

	// Cwd locates the current package. Defaults to the process working
	// directory.
	Cwd string
}

// Find returns the workspace root for startDir: the value of $GPM_ROOT
// when set, otherwise the nearest directory at or above startDir holding
// gpm.yaml.
func Find(startDir string) (string, error) {
	if root := os.Getenv(RootEnv); root != "" {
		if _, err := os.Stat(filepath.Join(root, ConfigFile)); err != nil {
			return "", errors.Wrap(errors.ErrCodeNotFound, err, "%s=%s holds no %s", RootEnv, root, ConfigFile)
		}
		return filepath.Abs(root)
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.ErrCodeNotFound,
				"root path not found. Run 'gpm init <url>' from the directory you want to hold your packages")
		}
		dir = parent
	}
}

// Open returns the workspace containing startDir.
func Open(startDir string, logger *log.Logger) (*Workspace, error) {
	root, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	return newWorkspace(root, startDir, logger), nil
}

func newWorkspace(root, cwd string, logger *log.Logger) *Workspace {
	if logger == nil {
		logger = log.Default()
	}
	return &Workspace{
		Root:      root,
		Config:    NewConfig(filepath.Join(root, ConfigFile)),
		Manifests: manifest.NewStore(logger),
		Logger:    logger,
		Cwd:       cwd,
	}
}

// Init makes dir a workspace whose main package is cloned from repo.
func Init(dir, repo, branch string, logger *log.Logger) (*Workspace, error) {
	name, err := manifest.NameFromRepoURL(repo)
	if err != nil {
		return nil, err
	}
	if branch == "" {
		branch = DefaultBranch
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	w := newWorkspace(root, root, logger)
	if _, err := os.Stat(w.Config.Path()); os.IsNotExist(err) {
		if err := os.WriteFile(w.Config.Path(), nil, 0o644); err != nil {
			return nil, errors.Wrap(errors.ErrCodePrecondition, err, "failed to create %s", w.Config.Path())
		}
	}
	for _, kv := range [][2]string{{KeyMainRepo, repo}, {KeyMainName, name}, {KeyMainBranch, branch}} {
		if err := w.Config.Set(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// CacheDir is where derived artifacts such as rendered graphs are kept.
func (w *Workspace) CacheDir() string { return filepath.Join(w.Root, ".gpm", "cache") }

// PackageDir returns where the named package is checked out.
func (w *Workspace) PackageDir(name string) string { return filepath.Join(w.Root, name) }

func (w *Workspace) MainName() (string, error)   { return w.Config.RequiredString(KeyMainName) }
func (w *Workspace) MainRepo() (string, error)   { return w.Config.RequiredString(KeyMainRepo) }
func (w *Workspace) MainBranch() (string, error) { return w.Config.RequiredString(KeyMainBranch) }

// Selection returns the names of the selected packages.
func (w *Workspace) Selection() ([]string, error) { return w.Config.Strings(KeySelection) }

// SetSelection replaces the selection.
func (w *Workspace) SetSelection(names []string) error {
	if names == nil {
		names = []string{}
	}
	return w.Config.Set(KeySelection, names)
}

// CurrentPackageName returns the package holding the working directory,
// found by walking up to the nearest manifest below the root. It returns
// "" outside any package.
func (w *Workspace) CurrentPackageName() string {
	cwd := w.Cwd
	if cwd == "" {
		cwd, _ = os.Getwd()
	}
	dir, err := filepath.Abs(cwd)
	if err != nil {
		return ""
	}
	for strings.HasPrefix(dir, w.Root+string(filepath.Separator)) {
		if w.Manifests.Exists(dir) {
			return filepath.Base(dir)
		}
		dir = filepath.Dir(dir)
	}
	return ""
}

// loader resolves package names to the manifests checked out in the
// workspace.
type loader struct{ w *Workspace }

func (l loader) PackageDir(name string) string { return l.w.PackageDir(name) }

func (l loader) Load(name string) (*manifest.Manifest, error) {
	return l.w.Manifests.Load(l.w.PackageDir(name))
}

// Loader exposes the workspace as a graph.Loader.
func (w *Workspace) Loader() graph.Loader { return loader{w} }

// Load builds the dependency graph rooted at the main package. When the
// main package is not checked out yet the root is a Missing node built
// from the configured repository.
func (w *Workspace) Load(ctx context.Context) (*graph.Graph, error) {
	name, err := w.MainName()
	if err != nil {
		return nil, err
	}
	root, err := w.mainNode(name)
	if err != nil {
		return nil, err
	}
	selected, err := w.Selection()
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(root, loader{w}, graph.Options{
		Selected: selected,
		Current:  w.CurrentPackageName(),
	})
	if err != nil {
		return nil, err
	}
	g.MarkRedundant()
	w.Logger.Debug("graph loaded", "root", name, "packages", g.Len())
	return g, nil
}

// Reload implements perform.Reloader.
func (w *Workspace) Reload(ctx context.Context) (*graph.Graph, error) { return w.Load(ctx) }

func (w *Workspace) mainNode(name string) (*graph.Node, error) {
	dir := w.PackageDir(name)
	m, err := w.Manifests.Load(dir)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return graph.NewNode(m)
	}
	repo, err := w.MainRepo()
	if err != nil {
		return nil, err
	}
	return graph.NewMissing(name, repo, dir), nil
}

// WriteManifest serializes n back to its manifest file.
func (w *Workspace) WriteManifest(n *graph.Node) error {
	return w.Manifests.Write(n.Manifest())
}
