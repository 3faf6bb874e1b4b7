// Package security keeps client-supplied names inside the upload root.
package security

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrOutsideRoot is returned for names that would resolve outside the upload root.
	ErrOutsideRoot = errors.New("path escapes upload root")
	// ErrMalformedURL is returned when a file URL cannot be parsed or names no file.
	ErrMalformedURL = errors.New("malformed file URL")
)

// Within returns the cleaned path of the file called name directly inside root.
//
// Only plain file names are accepted: empty names, "." and "..", and
// anything containing a path separator are rejected with ErrOutsideRoot.
func Within(root, name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", errors.Wrapf(ErrOutsideRoot, "name %q", name)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrap(err, "resolving upload root")
	}
	ref := filepath.Clean(filepath.Join(absRoot, name))
	if filepath.Dir(ref) != absRoot {
		return "", errors.Wrapf(ErrOutsideRoot, "name %q", name)
	}
	return ref, nil
}

// NameFromURL returns the last path segment of an absolute URL.
func NameFromURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", errors.Wrap(ErrMalformedURL, err.Error())
	}
	if !u.IsAbs() {
		return "", errors.Wrapf(ErrMalformedURL, "not an absolute URL: %q", raw)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return "", errors.Wrapf(ErrMalformedURL, "no file name in %q", raw)
	}
	return name, nil
}
