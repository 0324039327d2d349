package fs

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/curator-cms/curator/internal/config"
	internal_errors "github.com/curator-cms/curator/internal/errors"
)

// Storage keeps attachment files under two disjoint roots. The public root
// is mounted by the web server under PublicBaseURL; the protected root is
// never mapped, so a protected path cannot be reached through the public
// namespace.
type Storage struct {
	publicRoot    string
	protectedRoot string
	publicBaseURL string
}

func New(cfg config.Storage) (*Storage, error) {
	publicRoot := filepath.Clean(cfg.PublicDir)
	protectedRoot := filepath.Clean(cfg.ProtectedDir)
	if publicRoot == protectedRoot {
		return nil, fmt.Errorf("public and protected storage roots must differ")
	}

	for _, root := range []string{publicRoot, protectedRoot} {
		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
		}
	}

	return &Storage{
		publicRoot:    publicRoot,
		protectedRoot: protectedRoot,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// PublicRoot returns the directory the web server should mount.
func (s *Storage) PublicRoot() string {
	return s.publicRoot
}

func (s *Storage) root(protected bool) string {
	if protected {
		return s.protectedRoot
	}
	return s.publicRoot
}

// fullPath joins a relative disk path against the proper root, rejecting
// traversal outside of it.
func (s *Storage) fullPath(relPath string, protected bool) (string, error) {
	root := s.root(protected)
	full := filepath.Join(root, filepath.Clean("/"+relPath))
	if !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", &internal_errors.StorageError{Op: "resolve", Err: fmt.Errorf("path %q escapes storage root", relPath)}
	}
	return full, nil
}

// Save writes file content at a relative path, creating fan-out directories
// lazily. A partial write is cleaned up.
func (s *Storage) Save(data io.Reader, protected bool, relPath string) error {
	full, err := s.fullPath(relPath, protected)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return &internal_errors.StorageError{Op: "save", Err: err}
	}

	dst, err := os.Create(full)
	if err != nil {
		return &internal_errors.StorageError{Op: "save", Err: err}
	}
	defer dst.Close()

	if _, err := io.Copy(dst, data); err != nil {
		os.Remove(full) // Best effort, ignore error here.
		return &internal_errors.StorageError{Op: "save", Err: err}
	}
	return nil
}

func (s *Storage) Read(relPath string, protected bool) (io.ReadCloser, error) {
	full, err := s.fullPath(relPath, protected)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("attachment file %s: %w", relPath, internal_errors.NotFound)
		}
		return nil, &internal_errors.StorageError{Op: "read", Err: err}
	}
	return file, nil
}

// Delete removes a single file. A missing file is not an error.
func (s *Storage) Delete(relPath string, protected bool) error {
	full, err := s.fullPath(relPath, protected)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return &internal_errors.StorageError{Op: "delete", Err: err}
	}
	return nil
}

// DeleteVariants removes cached resized variants living next to the
// original under a thumb_ prefix.
func (s *Storage) DeleteVariants(relPath string, protected bool) error {
	full, err := s.fullPath(relPath, protected)
	if err != nil {
		return err
	}

	dir, base := filepath.Split(full)
	matches, err := filepath.Glob(filepath.Join(dir, "thumb_*_"+base))
	if err != nil {
		return &internal_errors.StorageError{Op: "delete variants", Err: err}
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return &internal_errors.StorageError{Op: "delete variants", Err: err}
		}
	}
	return nil
}

func (s *Storage) Exists(relPath string, protected bool) bool {
	full, err := s.fullPath(relPath, protected)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// LocalPath resolves the absolute filesystem path. Valid for both public
// and protected files.
func (s *Storage) LocalPath(relPath string, protected bool) (string, error) {
	return s.fullPath(relPath, protected)
}

// PublicURL resolves the web-visible URL of a file. Protected files have no
// public URL by construction.
func (s *Storage) PublicURL(relPath string, protected bool) (string, error) {
	if protected {
		return "", &internal_errors.AuthorizationError{Message: "protected attachment has no public URL"}
	}
	escaped := make([]string, 0, 4)
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return s.publicBaseURL + "/" + strings.Join(escaped, "/"), nil
}
