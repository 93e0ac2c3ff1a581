package errors

import (
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name derived from a repository URL.
// Package names double as directory names under the workspace root, so the
// rules are conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidPackage, "package name cannot be %q", name)
	}

	for _, pattern := range []string{"/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateLinkPath validates a path declared in the links section of a
// manifest (exports, imports, internal source/target). Such paths are joined
// onto a package directory and must stay inside it.
//
// Validation rules:
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
//
// An empty path or "." designates the package directory itself.
func ValidateLinkPath(path string) error {
	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /): %s", path)
	}

	for _, segment := range strings.Split(path, "/") {
		if segment == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..): %s", path)
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes: %s", path)
	}

	return nil
}

// ValidateRepoURL performs cheap sanity checks on a repository URL before it
// is handed to the version-control tool.
func ValidateRepoURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "repository URL cannot be empty")
	}
	for _, r := range rawURL {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidURL, "repository URL contains invalid characters: %q", rawURL)
		}
	}
	if strings.HasPrefix(rawURL, "-") {
		return New(ErrCodeInvalidURL, "repository URL cannot start with '-': %q", rawURL)
	}
	return nil
}
