package links

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// findSymlinks returns the symlinks below root without following them.
// A missing root has none.
func findSymlinks(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	var out []string
	err := doublestar.GlobWalk(os.DirFS(root), "**", func(path string, d fs.DirEntry) error {
		if d.Type()&fs.ModeSymlink != 0 {
			out = append(out, filepath.Join(root, filepath.FromSlash(path)))
		}
		return nil
	}, doublestar.WithNoFollow())
	sort.Strings(out)
	return out, err
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&fs.ModeSymlink != 0
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
