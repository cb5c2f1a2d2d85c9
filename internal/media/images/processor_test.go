package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewProcessor(storage, logger)
}

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessCover(t *testing.T) {
	p := newTestProcessor(t)

	data := encodeTestPNG(t, 120, 180)
	cover, err := p.Process(data)
	require.NoError(t, err)

	assert.Equal(t, "png", cover.Format)
	assert.Equal(t, 120, cover.Width)
	assert.Equal(t, 180, cover.Height)
	assert.NotEmpty(t, cover.BlurHash)
	assert.NotEmpty(t, cover.Path)

	stored, err := p.storage.Get(cover.Path)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestProcessRejectsGarbage(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.Process([]byte("definitely not an image"))
	assert.Error(t, err)

	_, err = p.Process(nil)
	assert.Error(t, err)
}

func TestRemoveCover(t *testing.T) {
	p := newTestProcessor(t)

	cover, err := p.Process(encodeTestPNG(t, 10, 10))
	require.NoError(t, err)
	require.True(t, p.storage.Exists(cover.Path))

	require.NoError(t, p.Remove(cover))
	assert.False(t, p.storage.Exists(cover.Path))

	// Removing again, or removing nil, is a no-op.
	assert.NoError(t, p.Remove(cover))
	assert.NoError(t, p.Remove(nil))
}

func TestStorageRejectsPathTraversal(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	_, err = storage.Get("../../etc/passwd")
	assert.Error(t, err)
}

func TestComputeBlurHashLargeImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 600))
	hash, err := ComputeBlurHash(img)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}
