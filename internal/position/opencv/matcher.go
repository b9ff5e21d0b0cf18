//go:build !nocv

// Package opencv provides the OpenCV template matcher. It needs OpenCV
// installed (gocv); builds tagged nocv use the native matcher instead.
package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/position"
)

// Matcher runs cv::matchTemplate with TM_CCOEFF_NORMED on BGR images.
type Matcher struct {
	threshold float64
}

// NewMatcher creates an OpenCV matcher. A threshold <= 0 uses
// position.DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = position.DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Match implements position.Matcher.
func (m *Matcher) Match(screenshotPath, templatePath string) (*domain.BBox, error) {
	bbox, _, err := m.MatchWithScore(screenshotPath, templatePath, position.MatchOptions{})
	return bbox, err
}

// MatchWithScore implements position.ScoringMatcher.
func (m *Matcher) MatchWithScore(screenshotPath, templatePath string, opts position.MatchOptions) (*domain.BBox, float64, error) {
	shot := gocv.IMRead(screenshotPath, gocv.IMReadColor)
	defer shot.Close()
	if shot.Empty() {
		return nil, 0, fmt.Errorf("read screenshot %s", screenshotPath)
	}

	tmpl := gocv.IMRead(templatePath, gocv.IMReadColor)
	defer tmpl.Close()
	if tmpl.Empty() {
		return nil, 0, fmt.Errorf("read template %s", templatePath)
	}

	area := image.Rect(0, 0, shot.Cols(), shot.Rows())
	if opts.Region != nil {
		area = opts.Region.Intersect(area)
	}
	if area.Dx() < tmpl.Cols() || area.Dy() < tmpl.Rows() {
		return nil, 0, fmt.Errorf("template %dx%d larger than search area %dx%d",
			tmpl.Cols(), tmpl.Rows(), area.Dx(), area.Dy())
	}

	search := shot.Region(area)
	defer search.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(search, tmpl, &result, gocv.TmCcoeffNormed, mask)
	if result.Empty() {
		return nil, 0, fmt.Errorf("matchTemplate produced no result")
	}

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
	score := float64(maxVal)

	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = m.threshold
	}
	if score < threshold {
		return nil, score, nil
	}

	return &domain.BBox{
		X:      area.Min.X + maxLoc.X,
		Y:      area.Min.Y + maxLoc.Y,
		Width:  tmpl.Cols(),
		Height: tmpl.Rows(),
	}, score, nil
}

// Ensure Matcher implements position.ScoringMatcher.
var _ position.ScoringMatcher = (*Matcher)(nil)
