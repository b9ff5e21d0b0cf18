package position

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// NativeMatcher is a pure-Go normalized cross-correlation matcher
// (TM_CCOEFF_NORMED over luminance). It is exhaustive and therefore slow on
// full-resolution screenshots; production builds use the OpenCV matcher.
type NativeMatcher struct {
	threshold float64
}

// NewNativeMatcher creates a native matcher. A threshold <= 0 uses DefaultThreshold.
func NewNativeMatcher(threshold float64) *NativeMatcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &NativeMatcher{threshold: threshold}
}

// Match implements Matcher.
func (m *NativeMatcher) Match(screenshotPath, templatePath string) (*domain.BBox, error) {
	bbox, _, err := m.MatchWithScore(screenshotPath, templatePath, MatchOptions{})
	return bbox, err
}

// MatchWithScore implements ScoringMatcher.
func (m *NativeMatcher) MatchWithScore(screenshotPath, templatePath string, opts MatchOptions) (*domain.BBox, float64, error) {
	shot, err := loadGray(screenshotPath)
	if err != nil {
		return nil, 0, err
	}
	tmpl, err := loadGray(templatePath)
	if err != nil {
		return nil, 0, err
	}

	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = m.threshold
	}
	return MatchGray(shot, tmpl, opts.Region, threshold)
}

// GrayImage is a luminance plane.
type GrayImage struct {
	W, H int
	Pix  []float64
}

func (g *GrayImage) at(x, y int) float64 {
	return g.Pix[y*g.W+x]
}

// NewGrayImage converts img to luminance with its origin moved to (0,0).
func NewGrayImage(img image.Image) *GrayImage {
	b := img.Bounds()
	g := &GrayImage{W: b.Dx(), H: b.Dy(), Pix: make([]float64, b.Dx()*b.Dy())}
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			r, gg, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			g.Pix[y*g.W+x] = (0.299*float64(r) + 0.587*float64(gg) + 0.114*float64(bb)) / 257
		}
	}
	return g
}

func loadGray(path string) (*GrayImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return NewGrayImage(img), nil
}

// MatchGray searches tmpl in shot, optionally within region, and returns the
// best position when its score meets threshold.
func MatchGray(shot, tmpl *GrayImage, region *image.Rectangle, threshold float64) (*domain.BBox, float64, error) {
	area := image.Rect(0, 0, shot.W, shot.H)
	if region != nil {
		area = region.Intersect(area)
	}
	if tmpl.W == 0 || tmpl.H == 0 {
		return nil, 0, fmt.Errorf("empty template")
	}
	if area.Dx() < tmpl.W || area.Dy() < tmpl.H {
		return nil, 0, fmt.Errorf("template %dx%d larger than search area %dx%d",
			tmpl.W, tmpl.H, area.Dx(), area.Dy())
	}

	n := float64(tmpl.W * tmpl.H)
	var tSum float64
	for _, v := range tmpl.Pix {
		tSum += v
	}
	tMean := tSum / n
	dev := make([]float64, len(tmpl.Pix))
	var tVar float64
	for i, v := range tmpl.Pix {
		dev[i] = v - tMean
		tVar += dev[i] * dev[i]
	}

	sum, sq := integrals(shot)
	best, bestAt := math.Inf(-1), image.Point{}
	for y := area.Min.Y; y+tmpl.H <= area.Max.Y; y++ {
		for x := area.Min.X; x+tmpl.W <= area.Max.X; x++ {
			s := windowSum(sum, shot.W+1, x, y, tmpl.W, tmpl.H)
			s2 := windowSum(sq, shot.W+1, x, y, tmpl.W, tmpl.H)
			iVar := s2 - s*s/n

			denom := math.Sqrt(tVar * iVar)
			score := 0.0
			if denom > 1e-9 {
				// Sum of dev is zero, so the window mean drops out.
				var num float64
				for ty := 0; ty < tmpl.H; ty++ {
					row := (y+ty)*shot.W + x
					drow := ty * tmpl.W
					for tx := 0; tx < tmpl.W; tx++ {
						num += dev[drow+tx] * shot.Pix[row+tx]
					}
				}
				score = num / denom
			}
			if score > best {
				best, bestAt = score, image.Pt(x, y)
			}
		}
	}

	if best < threshold {
		return nil, best, nil
	}
	return &domain.BBox{X: bestAt.X, Y: bestAt.Y, Width: tmpl.W, Height: tmpl.H}, best, nil
}

// integrals builds summed-area tables of values and squared values with a
// zero first row and column.
func integrals(g *GrayImage) (sum, sq []float64) {
	stride := g.W + 1
	sum = make([]float64, stride*(g.H+1))
	sq = make([]float64, stride*(g.H+1))
	for y := 0; y < g.H; y++ {
		var rs, rq float64
		for x := 0; x < g.W; x++ {
			v := g.at(x, y)
			rs += v
			rq += v * v
			sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + rs
			sq[(y+1)*stride+x+1] = sq[y*stride+x+1] + rq
		}
	}
	return sum, sq
}

func windowSum(t []float64, stride, x, y, w, h int) float64 {
	return t[(y+h)*stride+x+w] - t[y*stride+x+w] - t[(y+h)*stride+x] + t[y*stride+x]
}

// Ensure NativeMatcher implements ScoringMatcher.
var _ ScoringMatcher = (*NativeMatcher)(nil)
