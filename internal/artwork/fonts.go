package artwork

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	fontsOnce sync.Once
	fontsErr  error
	regular   *opentype.Font
	bold      *opentype.Font
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regular, fontsErr = opentype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		bold, fontsErr = opentype.Parse(gobold.TTF)
	})
	if fontsErr != nil {
		return fmt.Errorf("failed to parse fonts: %w", fontsErr)
	}
	return nil
}

// faceSet hands out faces for one render. Faces keep glyph buffers and are
// not shared across goroutines.
type faceSet struct {
	faces []font.Face
}

func (fs *faceSet) face(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %.0fpt face: %w", size, err)
	}
	fs.faces = append(fs.faces, face)
	return face, nil
}

func (fs *faceSet) Close() {
	for _, f := range fs.faces {
		_ = f.Close()
	}
}
