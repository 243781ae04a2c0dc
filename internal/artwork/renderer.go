// Package artwork renders the playlist cover and the shareable story poster.
package artwork

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"hitcapsule/internal/models"

	"github.com/nfnt/resize"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

const (
	coverSize    = 640
	coverQuality = 92

	posterWidth  = 1080
	posterHeight = 1920
	posterMargin = 60
	qrSize       = 360
	listSpacing  = 110
)

// Renderer draws artwork with the bundled Go fonts. It holds no state and is
// safe for concurrent use.
type Renderer struct{}

// NewRenderer returns a Renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderCover writes a 640x640 JPEG cover to path
func (r *Renderer) RenderCover(dateText, name, path string) error {
	if err := loadFonts(); err != nil {
		return err
	}
	var faces faceSet
	defer faces.Close()

	titleFace, err := faces.face(bold, 48)
	if err != nil {
		return err
	}
	dateFace, err := faces.face(regular, 36)
	if err != nil {
		return err
	}
	nameFace, err := faces.face(regular, 26)
	if err != nil {
		return err
	}
	labelFace, err := faces.face(regular, 24)
	if err != nil {
		return err
	}
	footFace, err := faces.face(regular, 18)
	if err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, coverSize, coverSize))
	fill(img, color.RGBA{28, 28, 28, 255})
	strokeRoundedRect(img, image.Rect(24, 24, coverSize-24, coverSize-24), 28, 3, white)

	textWidth := coverSize - 80
	text(img, titleFace, white, 40, 60, textWidth, "HitCapsule")
	text(img, dateFace, lightGrey, 40, 120, textWidth, dateText)
	text(img, nameFace, grey, 40, 175, textWidth, name)
	text(img, labelFace, grey, 40, coverSize-90, textWidth, "Billboard Hot 100")
	text(img, footFace, dimGrey, 40, coverSize-60, textWidth, "generated with hitcapsule")

	return writeFile(path, func(f *os.File) error {
		return jpeg.Encode(f, img, &jpeg.Options{Quality: coverQuality})
	})
}

// RenderPoster writes a 1080x1920 PNG with the top entries and a QR code
// linking to the playlist
func (r *Renderer) RenderPoster(dateText string, top []models.ChartEntry, playlistURL, name, subtitle, path string) error {
	if err := loadFonts(); err != nil {
		return err
	}
	var faces faceSet
	defer faces.Close()

	titleFace, err := faces.face(bold, 72)
	if err != nil {
		return err
	}
	dateFace, err := faces.face(regular, 54)
	if err != nil {
		return err
	}
	labelFace, err := faces.face(regular, 36)
	if err != nil {
		return err
	}
	entryFace, err := faces.face(bold, 40)
	if err != nil {
		return err
	}
	artistFace, err := faces.face(regular, 28)
	if err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, posterWidth, posterHeight))
	fill(img, color.RGBA{24, 24, 24, 255})

	textWidth := posterWidth - 2*posterMargin
	text(img, titleFace, white, posterMargin, 80, textWidth, "HitCapsule")
	text(img, dateFace, lightGrey, posterMargin, 170, textWidth, dateText)

	label := "Billboard Hot 100"
	if subtitle != "" {
		label = subtitle + " · " + label
	}
	text(img, labelFace, grey, posterMargin, 240, textWidth, label)

	y := 340
	for i, e := range top {
		text(img, entryFace, white, posterMargin, y, textWidth, fmt.Sprintf("%d. %s", i+1, e.Title))
		text(img, artistFace, grey, posterMargin+40, y+48, textWidth-40, e.Artist)
		y += listSpacing
	}

	qr, err := qrImage(playlistURL)
	if err != nil {
		return err
	}
	qrAt := image.Pt(posterWidth-qrSize-posterMargin, posterHeight-qrSize-posterMargin)
	draw.Draw(img, image.Rectangle{Min: qrAt, Max: qrAt.Add(image.Pt(qrSize, qrSize))}, qr, image.Point{}, draw.Src)

	captionWidth := qrAt.X - 2*posterMargin
	text(img, artistFace, grey, posterMargin, posterHeight-160, captionWidth, name)
	text(img, artistFace, grey, posterMargin, posterHeight-100, captionWidth, "Scan to open on Spotify")

	return writeFile(path, func(f *os.File) error {
		return png.Encode(f, img)
	})
}

// qrImage encodes url and scales it to qrSize with nearest-neighbour so the
// modules stay sharp
func qrImage(url string) (image.Image, error) {
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return resize.Resize(qrSize, qrSize, q.Image(256), resize.NearestNeighbor), nil
}

func writeFile(path string, encode func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := encode(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
