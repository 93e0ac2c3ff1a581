package manifest

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/gpmworks/gpm/pkg/errors"
)

// Store reads and writes manifest files. A zero Store uses [DefaultCodecs]
// and does not log.
type Store struct {
	Codecs []Codec
	Logger *log.Logger
}

// NewStore returns a store with the default codecs.
func NewStore(logger *log.Logger) *Store {
	return &Store{Codecs: DefaultCodecs(), Logger: logger}
}

func (s *Store) codecs() []Codec {
	if len(s.Codecs) == 0 {
		return DefaultCodecs()
	}
	return s.Codecs
}

// Find returns the path of the manifest file in dir, or "" if there is none.
func (s *Store) Find(dir string) string {
	for _, c := range s.codecs() {
		p := filepath.Join(dir, c.FileName())
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads the manifest of the package in dir. It returns (nil, nil) when
// the directory holds no manifest.
func (s *Store) Load(dir string) (*Manifest, error) {
	path := s.Find(dir)
	if path == "" {
		return nil, nil
	}
	return s.Read(path)
}

// Read parses the manifest file at path. Merge-conflict blocks are resolved
// to our side in memory and the manifest is flagged as conflicted.
func (s *Store) Read(path string) (*Manifest, error) {
	codec, err := DetectCodec(path, s.codecs()...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "failed to load manifest: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "failed to load manifest: %s", path)
	}

	text, conflicted := ResolveConflicts(string(data), Ours)
	doc, err := codec.Decode([]byte(text))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "failed to load manifest: %s", path)
	}
	if doc.LegacyRepo != "" && s.Logger != nil {
		s.Logger.Warn("deprecated property 'repo' in manifest", "file", path)
	}

	dir := filepath.Dir(path)
	m := &Manifest{
		File:         path,
		Dir:          dir,
		Name:         filepath.Base(dir),
		Conflicted:   conflicted,
		Links:        doc.Links,
		Dependencies: doc.Dependencies,
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "failed to load manifest: %s", path)
	}
	return m, nil
}

// Write serializes m to its own file.
func (s *Store) Write(m *Manifest) error {
	if m.File == "" {
		return errors.New(errors.ErrCodeInternal, "missing required file property in manifest of %s", m.Name)
	}
	return s.WriteTo(m, m.File)
}

// WriteTo serializes m to path, choosing the format from the file name.
func (s *Store) WriteTo(m *Manifest, path string) error {
	codec, err := DetectCodec(path, s.codecs()...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "failed to write manifest: %s", path)
	}
	data, err := codec.Encode(&Document{Links: m.Links, Dependencies: m.Dependencies})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write manifest: %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write manifest: %s", path)
	}
	return nil
}

// ResolveFile rewrites the manifest file at path with every conflict block
// replaced by the given side. It reports whether the file was conflicted.
func (s *Store) ResolveFile(path string, side Side) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeNotFound, err, "failed to read %s", path)
	}
	text, conflicted := ResolveConflicts(string(data), side)
	if !conflicted {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return true, errors.Wrap(errors.ErrCodeInternal, err, "failed to write %s", path)
	}
	return true, nil
}

// LoadAll reads every manifest found one level below root, sorted by
// package name.
func (s *Store) LoadAll(root string) ([]*Manifest, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var out []*Manifest
	for _, c := range s.codecs() {
		matches, err := doublestar.Glob(fsys, "*/"+c.FileName(), doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, rel := range matches {
			dir := filepath.Dir(rel)
			if seen[dir] {
				continue
			}
			seen[dir] = true
			m, err := s.Read(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Exists reports whether dir holds a manifest.
func (s *Store) Exists(dir string) bool {
	return s.Find(dir) != ""
}
