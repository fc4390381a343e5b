package main

import (
	"bytes"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestJPEG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, createTestImage(width, height), &jpeg.Options{Quality: 85}))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestReadImageDimensions(t *testing.T) {
	dir := t.TempDir()

	t.Run("jpeg", func(t *testing.T) {
		path := writeTestJPEG(t, dir, "photo.jpg", 640, 480)
		w, h, err := readImageDimensions(path)
		require.NoError(t, err)
		assert.Equal(t, 640, w)
		assert.Equal(t, 480, h)
	})

	t.Run("png", func(t *testing.T) {
		path := writeTestPNG(t, dir, "shot.png", 320, 200)
		w, h, err := readImageDimensions(path)
		require.NoError(t, err)
		assert.Equal(t, 320, w)
		assert.Equal(t, 200, h)
	})

	t.Run("not a jpeg", func(t *testing.T) {
		path := filepath.Join(dir, "fake.jpg")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))
		_, _, err := readImageDimensions(path)
		assert.Error(t, err)
	})

	t.Run("not a png", func(t *testing.T) {
		path := filepath.Join(dir, "fake.png")
		require.NoError(t, os.WriteFile(path, []byte("still not an image, but padded out"), 0644))
		_, _, err := readImageDimensions(path)
		assert.Error(t, err)
	})
}

func TestWalkImages(t *testing.T) {
	dir := t.TempDir()
	writeTestJPEG(t, dir, "a.jpg", 100, 50)
	writeTestPNG(t, dir, "b.png", 30, 40)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644))

	subDir := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(subDir, 0755))
	writeTestJPEG(t, subDir, "c.jpeg", 10, 10)

	listing, err := walkImages(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), listing.Name)
	require.Len(t, listing.Files, 3)

	byName := map[string]FileInfo{}
	for _, f := range listing.Files {
		byName[f.Name] = f
	}
	assert.Equal(t, ImageInfo{Width: 100, Height: 50}, byName["a.jpg"].Image)
	assert.Equal(t, ImageInfo{Width: 30, Height: 40}, byName["b.png"].Image)
	assert.Contains(t, byName, filepath.Join("nested", "c.jpeg"))
	assert.NotContains(t, byName, "notes.txt")
}
