package skill

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var safeName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsSafeName reports whether name may be used as a path segment.
// Only letters, digits, hyphen and underscore are allowed.
func IsSafeName(name string) bool {
	return safeName.MatchString(name)
}

// ResolveWithin joins rel onto root and returns the cleaned absolute path.
// It fails if the result escapes root, including through symlinks that
// already exist on disk.
func ResolveWithin(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	target := filepath.Join(absRoot, filepath.FromSlash(rel))
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		target = resolved
	}

	if !IsWithin(absRoot, target) {
		return "", fmt.Errorf("path %q escapes %q", rel, root)
	}
	return target, nil
}

// IsWithin reports whether path is root or lies below it.
// Both arguments must be absolute and clean.
func IsWithin(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
