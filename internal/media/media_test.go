package media

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

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1700000000/nijsci/products/abc.jpg", "nijsci/products/abc"},
		{"https://res.cloudinary.com/demo/video/upload/v12/nijsci/hero/clip.mp4", "nijsci/hero/clip"},
		{"https://res.cloudinary.com/demo/image/upload/nijsci/a.b.png", "nijsci/a.b"},
		{"https://res.cloudinary.com/demo/image/upload/sample", "sample"},
		{"https://res.cloudinary.com/demo/image/fetch/abc.jpg", ""},
		{"https://placehold.co/600x400?text=Beaker", ""},
		{"/uploads/products/x.png", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PublicIDFromURL(tt.url), tt.url)
	}
}

func TestResourceTypeFromURL(t *testing.T) {
	assert.Equal(t, ResourceVideo, ResourceTypeFromURL("https://res.cloudinary.com/demo/video/upload/v1/a.mp4"))
	assert.Equal(t, ResourceImage, ResourceTypeFromURL("https://res.cloudinary.com/demo/image/upload/v1/a.jpg"))
}

func TestNewUploadSniffsContentType(t *testing.T) {
	up := NewUpload("pixel", "", pngHeader)
	assert.Equal(t, "image/png", up.ContentType)
	assert.Equal(t, ".png", up.Ext())

	up = NewUpload("clip.MP4", "video/mp4", []byte("data"))
	assert.True(t, up.IsVideo())
	assert.Equal(t, ".mp4", up.Ext())
	assert.Equal(t, ResourceVideo, resourceTypeOf(up))
}

func TestFolder(t *testing.T) {
	assert.Equal(t, "nijsci/products", Folder("nijsci", FolderProducts))
	assert.Equal(t, "hero", Folder("", FolderHero))
	assert.Equal(t, "etc", Folder("nijsci", "../../etc"))
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore(dir, "/uploads")

	asset, err := store.Upload(ctx, Folder("nijsci", FolderCategories), NewUpload("glass.png", "image/png", pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(asset.URL, "/uploads/nijsci/categories/"))
	assert.True(t, strings.HasSuffix(asset.URL, ".png"))
	assert.Equal(t, ResourceImage, asset.ResourceType)

	abs := filepath.Join(dir, filepath.FromSlash(asset.PublicID))
	data, err := os.ReadFile(abs)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, store.Delete(ctx, asset.URL))
	_, err = os.Stat(abs)
	assert.True(t, os.IsNotExist(err))

	// deleting twice and deleting foreign URLs are no-ops
	assert.NoError(t, store.Delete(ctx, asset.URL))
	assert.NoError(t, store.Delete(ctx, "https://res.cloudinary.com/demo/image/upload/a.jpg"))
}

func TestLocalStoreDeleteStaysInsideDir(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "uploads")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	outside := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	store := NewLocalStore(dir, "/uploads")
	require.NoError(t, store.Delete(ctx, "/uploads/../secret.txt"))
	_, err := os.Stat(outside)
	assert.NoError(t, err)
}

func TestLocalStoreSweep(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore(dir, "/uploads")

	kept, err := store.Upload(ctx, "p", NewUpload("a.png", "image/png", pngHeader))
	require.NoError(t, err)
	orphan, err := store.Upload(ctx, "p", NewUpload("b.png", "image/png", pngHeader))
	require.NoError(t, err)
	fresh, err := store.Upload(ctx, "p", NewUpload("c.png", "image/png", pngHeader))
	require.NoError(t, err)

	old := time.Now().Add(-48 * time.Hour)
	for _, a := range []*Asset{kept, orphan} {
		require.NoError(t, os.Chtimes(filepath.Join(dir, filepath.FromSlash(a.PublicID)), old, old))
	}

	refs := map[string]struct{}{kept.URL: {}}
	n, err := store.Sweep(ctx, refs, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	exists := func(a *Asset) bool {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(a.PublicID)))
		return err == nil
	}
	assert.True(t, exists(kept))
	assert.False(t, exists(orphan))
	assert.True(t, exists(fresh))
}
