package position

import (
	"image"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// DefaultThreshold is the acceptance score used when a target has no policy.
const DefaultThreshold = 0.8

// Matcher finds a template in a screenshot.
type Matcher interface {
	// Match returns the accepted bbox, or nil when nothing cleared the
	// matcher's own threshold.
	Match(screenshotPath, templatePath string) (*domain.BBox, error)
}

// ScoringMatcher also reports the best score and honours MatchOptions.
type ScoringMatcher interface {
	Matcher

	// MatchWithScore returns the bbox in full-screenshot coordinates when the
	// best score meets the threshold, else (nil, score, nil).
	MatchWithScore(screenshotPath, templatePath string, opts MatchOptions) (*domain.BBox, float64, error)
}

// MatchOptions restrict a single match.
type MatchOptions struct {
	Region    *image.Rectangle // Search area in screenshot coordinates; nil means full frame
	Threshold float64          // 0 means the matcher's default
}

// TargetPolicy tunes matching for one target.
type TargetPolicy struct {
	Threshold float64
	// Region derives the search area from the screenshot bounds; nil
	// searches the full frame.
	Region func(frame image.Rectangle) image.Rectangle
}

// BottomRightQuadrant restricts a search to the lower right quarter.
func BottomRightQuadrant(frame image.Rectangle) image.Rectangle {
	mid := image.Pt(frame.Min.X+frame.Dx()/2, frame.Min.Y+frame.Dy()/2)
	return image.Rectangle{Min: mid, Max: frame.Max}
}

// DefaultTargetPolicies returns the per-target matching policy. The send
// button is only searched bottom right; similar icons appear in the chrome.
func DefaultTargetPolicies() map[string]TargetPolicy {
	return map[string]TargetPolicy{
		TargetInputBox:   {Threshold: 0.6},
		TargetSendButton: {Threshold: 0.8, Region: BottomRightQuadrant},
	}
}
