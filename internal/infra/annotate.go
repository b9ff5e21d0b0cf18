package infra

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

const boxLineWidth = 4

var (
	boxColor     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// Annotator implements domain.Annotator with x/image drawing.
type Annotator struct{}

// NewAnnotator creates an annotator.
func NewAnnotator() *Annotator {
	return &Annotator{}
}

// Annotate writes src with every box drawn to dst. With no boxes dst is a
// plain copy of src, so observers always get a current image.
func (a *Annotator) Annotate(src, dst string, boxes []domain.Annotation) error {
	if len(boxes) == 0 {
		return CopyFile(src, dst)
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	rgba := toRGBA(img)
	for _, b := range boxes {
		drawThickRect(rgba, b.Box, boxColor, boxLineWidth)
		if b.Label != "" {
			drawLabel(rgba, b.Label, b.Box.X, b.Box.Y-4)
		}
	}
	return WritePNG(dst, rgba)
}

func toRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// drawThickRect draws a rectangle outline of the given width, clamped to the image.
func drawThickRect(img *image.RGBA, b domain.BBox, c color.Color, width int) {
	outer := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height).Intersect(img.Bounds())
	if outer.Empty() {
		return
	}
	u := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, outer.Min.Y+width),
		image.Rect(outer.Min.X, outer.Max.Y-width, outer.Max.X, outer.Max.Y),
		image.Rect(outer.Min.X, outer.Min.Y, outer.Min.X+width, outer.Max.Y),
		image.Rect(outer.Max.X-width, outer.Min.Y, outer.Max.X, outer.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(outer), u, image.Point{}, draw.Src)
	}
}

// drawLabel draws text with a one-pixel outline so it reads on any background.
func drawLabel(img *image.RGBA, text string, x, y int) {
	if y < 13 {
		y = 13
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawString(img, text, x+dx, y+dy, outlineColor)
		}
	}
	drawString(img, text, x, y, textColor)
}

func drawString(img *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// Ensure Annotator implements domain.Annotator.
var _ domain.Annotator = (*Annotator)(nil)
