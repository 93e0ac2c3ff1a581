package manifest

import (
	"regexp"

	"github.com/gpmworks/gpm/pkg/errors"
)

// Canonical manifest file names, in lookup order.
const (
	FileName     = "package.yaml"
	TOMLFileName = "package.toml"
)

// InternalLink is a symlink between two paths of the same package.
type InternalLink struct {
	Source string
	Target string
}

// NamedExport is one entry of a mapping-style exports declaration. Each entry
// produces its own link under the importing package's dependency directory.
type NamedExport struct {
	Name string
	Path string
}

// Exports holds either a single exported path or a list of named sub-exports.
// The zero value exports nothing.
type Exports struct {
	Path  string
	Named []NamedExport
}

// IsZero reports whether nothing is exported.
func (e Exports) IsZero() bool { return e.Path == "" && len(e.Named) == 0 }

// IsNamed reports whether the exports are a mapping of named sub-exports.
func (e Exports) IsNamed() bool { return len(e.Named) > 0 }

// Links is the links section of a manifest.
type Links struct {
	Exports   Exports        // Paths exposed to dependents
	Imports   string         // Directory under which dependency links are created
	Internals []InternalLink // Links within the package itself
}

// IsZero reports whether the links section declares nothing.
func (l *Links) IsZero() bool {
	return l == nil || (l.Exports.IsZero() && l.Imports == "" && len(l.Internals) == 0)
}

// Dependency is a pinned reference to another package as declared in a
// manifest. Only Repo is required.
type Dependency struct {
	Repo   string
	Branch string
	Commit string
}

// Name returns the package name derived from Repo, or an empty string when
// the URL is malformed. Decoded manifests never contain malformed URLs.
func (d Dependency) Name() string {
	name, err := NameFromRepoURL(d.Repo)
	if err != nil {
		return ""
	}
	return name
}

// Manifest is the declared metadata of one package.
type Manifest struct {
	File       string // Manifest file path; empty for synthesized manifests
	Dir        string // Package directory
	Name       string // Package name (directory base name)
	Conflicted bool   // File contained merge-conflict markers when read

	Links        *Links
	Dependencies []Dependency
}

// FindDependency returns the index of the dependency on name, or -1.
func (m *Manifest) FindDependency(name string) int {
	for i, d := range m.Dependencies {
		if d.Name() == name {
			return i
		}
	}
	return -1
}

var repoURLRe = regexp.MustCompile(`^.*[/:]([^/:]+?)\.git/?$`)

// NameFromRepoURL derives a package name from its repository URL, which
// must end in "<name>.git". Both "https://host/org/name.git" and
// "git@host:org/name.git" forms are accepted.
func NameFromRepoURL(url string) (string, error) {
	m := repoURLRe.FindStringSubmatch(url)
	if m == nil {
		return "", errors.New(errors.ErrCodeInvalidURL, "malformed repository URL: %s", url)
	}
	if err := errors.ValidatePackageName(m[1]); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidURL, err, "malformed repository URL: %s", url)
	}
	return m[1], nil
}

// Validate checks that every dependency has a well-formed repository URL and
// that link paths stay inside the package directory.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Dependencies))
	for i, d := range m.Dependencies {
		if d.Repo == "" {
			return errors.New(errors.ErrCodeInvalidManifest, "dependency #%d has no repo", i+1)
		}
		name, err := NameFromRepoURL(d.Repo)
		if err != nil {
			return err
		}
		if seen[name] {
			return errors.New(errors.ErrCodeInvalidManifest, "duplicate dependency %s", name)
		}
		seen[name] = true
	}
	if m.Links == nil {
		return nil
	}
	paths := []string{m.Links.Imports, m.Links.Exports.Path}
	for _, e := range m.Links.Exports.Named {
		if err := errors.ValidatePackageName(e.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidManifest, err, "invalid export name %q", e.Name)
		}
		paths = append(paths, e.Path)
	}
	for _, in := range m.Links.Internals {
		if in.Source == "" || in.Target == "" {
			return errors.New(errors.ErrCodeInvalidManifest, "internal link requires source and target")
		}
		paths = append(paths, in.Source, in.Target)
	}
	for _, p := range paths {
		if err := errors.ValidateLinkPath(p); err != nil {
			return err
		}
	}
	return nil
}
