// Package pathutil implements the path normalization rules that the façade
// uses to intern entries by canonical path. A canonical path is absolute,
// uses '/' as its sole separator, contains no duplicate slashes or '..'
// segments, and ends in '/' iff it denotes a directory.
package pathutil

import (
	"errors"
	"strings"
)

var (
	// ErrAbsolutePathRequired indicates that a path passed to Normalize was
	// not absolute.
	ErrAbsolutePathRequired = errors.New("absolute path required")
	// ErrInvalidPath indicates that a path contained a ".." segment that
	// would walk above its root.
	ErrInvalidPath = errors.New("invalid path")
)

// IsAbsolute returns whether path is absolute, either by a leading '/' or by
// drive-letter syntax ("C:...").
func IsAbsolute(path string) bool {
	if path == "" {
		return false
	}
	if path[0] == '/' {
		return true
	}
	return len(path) > 1 && path[1] == ':'
}

// Normalize converts path to canonical form. uncSupported indicates whether
// the backend declares UNC path support (backend.NormalizeUNCPaths); it is
// only consulted when path begins with two or more slashes.
func Normalize(path string, isDirectory, uncSupported bool) (string, error) {
	if !IsAbsolute(path) {
		return "", ErrAbsolutePathRequired
	}

	isUNC := uncSupported && len(path) >= 2 && path[0] == '/' && path[1] == '/'

	collapsed := collapseSlashes(path)

	resolved, err := resolveParentReferences(collapsed)
	if err != nil {
		return "", err
	}

	if isDirectory && (len(resolved) == 0 || resolved[len(resolved)-1] != '/') {
		resolved += "/"
	}

	if isUNC {
		resolved = "/" + resolved
	}

	return resolved, nil
}

// collapseSlashes replaces every run of two or more '/' with a single '/'.
func collapseSlashes(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	previousSlash := false
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '/' {
			if previousSlash {
				continue
			}
			previousSlash = true
		} else {
			previousSlash = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// resolveParentReferences removes ".." segments: scanning from index 1
// upward, a ".." found at index i < 2 is invalid (it would walk above the
// root); otherwise the ".." and its preceding segment are removed and the
// scan rewinds by two.
func resolveParentReferences(path string) (string, error) {
	if !strings.Contains(path, "..") {
		return path, nil
	}

	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		if segments[i] != ".." {
			continue
		}
		if i < 2 {
			return "", ErrInvalidPath
		}
		segments = append(segments[:i-1], segments[i+1:]...)
		i -= 2
	}

	return strings.Join(segments, "/"), nil
}
