// Package fixtures provides test helpers for unit and integration tests.
package fixtures

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
)

// Pattern returns a deterministic noise image; distinct seeds give
// uncorrelated patterns, which keeps template matching unambiguous.
func Pattern(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(rng.Intn(256))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// FakeDesktop composes a screenshot with patterns pasted at known places.
type FakeDesktop struct {
	Image *image.RGBA
}

// NewFakeDesktop creates a flat grey desktop of the given size.
func NewFakeDesktop(w, h int) *FakeDesktop {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 128, G: 128, B: 128, A: 255}), image.Point{}, draw.Src)
	return &FakeDesktop{Image: img}
}

// Paste draws src with its top-left corner at (x, y).
func (d *FakeDesktop) Paste(src image.Image, x, y int) *FakeDesktop {
	r := src.Bounds().Sub(src.Bounds().Min).Add(image.Pt(x, y))
	draw.Draw(d.Image, r, src, src.Bounds().Min, draw.Src)
	return d
}

// Save writes the desktop as PNG.
func (d *FakeDesktop) Save(path string) error {
	return WritePNG(path, d.Image)
}

// FakeTemplateTree creates a resolution-indexed template directory.
type FakeTemplateTree struct {
	Root string
}

// NewFakeTemplateTree creates a new template tree generator rooted at root.
func NewFakeTemplateTree(root string) *FakeTemplateTree {
	return &FakeTemplateTree{Root: root}
}

// AddFolder creates an empty resolution folder such as "1920x1080".
func (f *FakeTemplateTree) AddFolder(name string) error {
	return os.MkdirAll(filepath.Join(f.Root, name), 0755)
}

// AddTemplate writes <root>/<folder>/<file>.
func (f *FakeTemplateTree) AddTemplate(folder, file string, img image.Image) error {
	return WritePNG(filepath.Join(f.Root, folder, file), img)
}

// WritePNG writes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
