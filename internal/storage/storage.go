// Package storage is the filesystem side of the relay: it names, writes,
// removes and serves the uploaded KML files kept in a single flat directory.
package storage

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/disk"

	"kml-relay/internal/security"
)

const (
	NamePrefix = "filteredData_"
	NameSuffix = ".kml"
)

// StoredFile describes one file written by Save.
type StoredFile struct {
	Name     string
	Path     string
	Size     int64
	Checksum [32]byte
}

// Hash returns the hex-encoded SHA-256 of the stored bytes.
func (f StoredFile) Hash() string {
	return fmt.Sprintf("%x", f.Checksum)
}

// Usage reports the state of the upload root.
type Usage struct {
	Files      int    `json:"files"`
	FreeBytes  uint64 `json:"freeBytes"`
	TotalBytes uint64 `json:"totalBytes"`
}

// Store owns the upload root.
type Store struct {
	root  string
	now   func() time.Time
	newID func() string
}

type Option func(*Store)

// WithClock replaces time.Now for name generation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDSource replaces the random UUID used in generated names.
func WithIDSource(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

func New(root string, opts ...Option) *Store {
	s := &Store{
		root:  root,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Root() string { return s.root }

// NewName returns filteredData_<epoch-ms>_<uuid>.kml.
func (s *Store) NewName() string {
	return fmt.Sprintf("%s%d_%s%s", NamePrefix, s.now().UnixMilli(), s.newID(), NameSuffix)
}

// Save writes r to a freshly named file in the root, creating the root if
// needed. A partially written file is removed before returning an error.
func (s *Store) Save(r io.Reader) (StoredFile, error) {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return StoredFile{}, errors.Wrap(err, "creating upload root")
	}

	name := s.NewName()
	path, err := security.Within(s.root, name)
	if err != nil {
		return StoredFile{}, err
	}

	// O_EXCL: a name collision is an error, never an overwrite.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return StoredFile{}, errors.Wrapf(err, "creating %s", name)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return StoredFile{}, errors.Wrapf(err, "writing %s", name)
	}

	out := StoredFile{Name: name, Path: path, Size: n}
	copy(out.Checksum[:], h.Sum(nil))
	return out, nil
}

// Remove deletes the named file from the root. Missing files are reported
// like any other filesystem error.
func (s *Store) Remove(name string) error {
	path, err := security.Within(s.root, name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Usage counts stored files and reports space on the root's filesystem.
func (s *Store) Usage() (Usage, error) {
	var u Usage
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return u, errors.Wrap(err, "creating upload root")
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return u, errors.Wrap(err, "listing upload root")
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			u.Files++
		}
	}

	st, err := disk.Usage(s.root)
	if err != nil {
		return u, errors.Wrap(err, "reading disk usage")
	}
	u.FreeBytes = st.Free
	u.TotalBytes = st.Total
	return u, nil
}

// Free reports the bytes available to unprivileged writers on the root's filesystem.
func (s *Store) Free() (uint64, error) {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return 0, errors.Wrap(err, "creating upload root")
	}
	st, err := disk.Usage(s.root)
	if err != nil {
		return 0, errors.Wrap(err, "reading disk usage")
	}
	return st.Free, nil
}

// FileSystem exposes the root for static serving. Directories, including
// the root itself, are reported as not existing so nothing gets listed.
func (s *Store) FileSystem() http.FileSystem {
	return filesOnly{http.Dir(s.root)}
}

type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	if strings.HasSuffix(name, "/") {
		return nil, os.ErrNotExist
	}
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if st.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
