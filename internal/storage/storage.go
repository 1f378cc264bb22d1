// internal/storage/storage.go
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStore persists uploaded blobs and returns the URL they are served at.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// LocalFileStore writes files under a media root, one directory per prefix
// and day, and serves them below a base URL.
type LocalFileStore struct {
	root    string
	baseURL string
	now     func() time.Time
}

func NewLocalFileStore(root, baseURL string) *LocalFileStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalFileStore{root: root, baseURL: baseURL, now: time.Now}
}

// Root returns the directory files are written under.
func (s *LocalFileStore) Root() string {
	return s.root
}

// Save stores the content read from r. name is a logical path such as
// "partner_documents/report.pdf"; only its directory and base name are
// used and the base name is made unique.
func (s *LocalFileStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prefix := sanitize(path.Dir(path.Clean("/" + name)))
	base := sanitize(path.Base(name))
	if base == "" {
		base = "file"
	}

	rel := path.Join(prefix, s.now().UTC().Format("2006-01-02"), uuid.NewString()[:8]+"_"+base)
	dst := filepath.Join(s.root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("writing file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}

	return s.baseURL + (&url.URL{Path: rel}).EscapedPath(), nil
}

// sanitize keeps a path usable on disk: no parent references, no spaces.
func sanitize(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	kept := parts[:0]
	for _, part := range parts {
		part = strings.ReplaceAll(part, " ", "_")
		part = strings.ReplaceAll(part, "..", "_")
		if part == "" || part == "." {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "/")
}
