package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileStoreSave(t *testing.T) {
	root := t.TempDir()
	store := NewLocalFileStore(root, "/media")
	store.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	url, err := store.Save(context.Background(), "partner_documents/annual report.pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/media/partner_documents/2025-03-01/"), url)
	assert.True(t, strings.HasSuffix(url, "_annual_report.pdf"), url)

	rel := strings.TrimPrefix(url, "/media/")
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(content))
}

func TestLocalFileStoreStaysUnderRoot(t *testing.T) {
	root := t.TempDir()
	store := NewLocalFileStore(root, "/media/")

	url, err := store.Save(context.Background(), "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotContains(t, url, "..")

	rel := strings.TrimPrefix(url, "/media/")
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	assert.NoError(t, err)
}

func TestLocalFileStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalFileStore(t.TempDir(), "/media").Save(ctx, "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
