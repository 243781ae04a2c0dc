package artwork

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"hitcapsule/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, path string, dec func(f *os.File) (image.Image, error)) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := dec(f)
	require.NoError(t, err)
	return img
}

func TestRenderCover(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cover.jpg")

	err := NewRenderer().RenderCover("1997-03-06", "1997-03-06 Billboard Hot 100", path)
	require.NoError(t, err)

	img := decode(t, path, func(f *os.File) (image.Image, error) { return jpeg.Decode(f) })
	assert.Equal(t, image.Rect(0, 0, 640, 640), img.Bounds())

	// Background outside the border stays dark
	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Less(t, r>>8, uint32(60))
	assert.Less(t, g>>8, uint32(60))
	assert.Less(t, b>>8, uint32(60))
}

func TestRenderPoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poster.png")

	err := NewRenderer().RenderPoster("1997-03-06 × 2003-11-14", testutil.SampleEntries(),
		"https://open.spotify.com/playlist/abc", "Bestie Blend", "Bestie Blend", path)
	require.NoError(t, err)

	img := decode(t, path, func(f *os.File) (image.Image, error) { return png.Decode(f) })
	assert.Equal(t, image.Rect(0, 0, 1080, 1920), img.Bounds())

	// The QR quiet zone in the bottom-right corner is white
	r, g, b, _ := img.At(1080-60-5, 1920-60-5).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})
}

func TestRenderPoster_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	err := NewRenderer().RenderPoster("1997-03-06", nil, "https://open.spotify.com/playlist/abc", "x", "", filepath.Join(blocker, "poster.png"))
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	require.NoError(t, loadFonts())
	var faces faceSet
	defer faces.Close()
	face, err := faces.face(regular, 20)
	require.NoError(t, err)

	assert.Equal(t, "short", truncate(face, "short", 500))
	cut := truncate(face, "a very long title that will never fit in the box", 80)
	assert.NotEqual(t, "a very long title that will never fit in the box", cut)
	assert.Contains(t, cut, "…")
}

func TestInsideRounded(t *testing.T) {
	r := image.Rect(0, 0, 100, 100)
	assert.True(t, insideRounded(50, 50, r, 20))
	assert.False(t, insideRounded(0, 0, r, 20), "corner is cut")
	assert.True(t, insideRounded(0, 50, r, 20), "edge midpoint is inside")
	assert.False(t, insideRounded(100, 50, r, 20))
}
