package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gpmworks/gpm/pkg/errors"
)

// Dir keeps one file per entry below a directory. Entries older than
// MaxAge are misses; a zero MaxAge keeps entries forever.
type Dir struct {
	Path   string
	MaxAge time.Duration
}

// NewDir creates the directory if needed.
func NewDir(path string, maxAge time.Duration) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "failed to create cache directory %s", path)
	}
	return &Dir{Path: path, MaxAge: maxAge}, nil
}

func (d *Dir) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := d.file(key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if d.expired(info.ModTime()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set writes through a temporary file so readers never see a partial entry.
func (d *Dir) Set(ctx context.Context, key string, data []byte) error {
	path := d.file(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (d *Dir) Delete(ctx context.Context, key string) error {
	err := os.Remove(d.file(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Prune removes expired entries and reports how many were removed.
func (d *Dir) Prune(ctx context.Context) (int, error) {
	if d.MaxAge <= 0 {
		return 0, nil
	}
	removed := 0
	err := filepath.WalkDir(d.Path, func(path string, e os.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := e.Info()
		if err != nil {
			return err
		}
		if d.expired(info.ModTime()) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func (d *Dir) expired(mod time.Time) bool {
	return d.MaxAge > 0 && time.Since(mod) > d.MaxAge
}

// file shards entries by the first two hash characters.
func (d *Dir) file(key string) string {
	namespace, _, _ := strings.Cut(key, ":")
	h := Hash([]byte(key))
	return filepath.Join(d.Path, namespace, h[:2], h[2:])
}

var _ Cache = (*Dir)(nil)
