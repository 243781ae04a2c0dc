package artwork

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	white     = color.RGBA{255, 255, 255, 255}
	lightGrey = color.RGBA{230, 230, 230, 255}
	grey      = color.RGBA{200, 200, 200, 255}
	dimGrey   = color.RGBA{160, 160, 160, 255}
)

func fill(img draw.Image, c color.Color) {
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// text draws s with its top-left corner at (x, y), cut to maxWidth pixels
// when maxWidth is positive
func text(img draw.Image, face font.Face, c color.Color, x, y, maxWidth int, s string) {
	if maxWidth > 0 {
		s = truncate(face, s, maxWidth)
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

func truncate(face font.Face, s string, maxWidth int) string {
	if font.MeasureString(face, s).Ceil() <= maxWidth {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		cut := string(runes) + "…"
		if font.MeasureString(face, cut).Ceil() <= maxWidth {
			return cut
		}
	}
	return ""
}

// strokeRoundedRect draws a border of the given width just inside r
func strokeRoundedRect(img draw.Image, r image.Rectangle, radius, width int, c color.Color) {
	inner := r.Inset(width)
	innerRadius := max(radius-width, 0)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if insideRounded(x, y, r, radius) && !insideRounded(x, y, inner, innerRadius) {
				img.Set(x, y, c)
			}
		}
	}
}

func insideRounded(x, y int, r image.Rectangle, radius int) bool {
	if !(image.Point{X: x, Y: y}).In(r) {
		return false
	}
	cx := min(max(x, r.Min.X+radius), r.Max.X-1-radius)
	cy := min(max(y, r.Min.Y+radius), r.Max.Y-1-radius)
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= radius*radius
}
