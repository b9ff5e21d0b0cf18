package position

import (
	"fmt"
	"image"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// captureMu serializes capture-then-match across every Locator in the
// process, so a batch sees one uninterrupted desktop state.
var captureMu sync.Mutex

// LocatorOptions configures a Locator. Zero fields take defaults.
type LocatorOptions struct {
	Policies    map[string]TargetPolicy // Keyed by canonical target; nil uses DefaultTargetPolicies
	Threshold   float64                 // For targets without a policy
	CaptureLock sync.Locker             // nil uses the process-wide lock
	Annotator   domain.Annotator        // nil disables annotation
}

// Locator implements domain.Locator.
type Locator struct {
	repo      *Repository
	matcher   Matcher
	shots     domain.Screenshotter
	screens   domain.ScreenMetrics
	annotator domain.Annotator
	policies  map[string]TargetPolicy
	threshold float64
	lock      sync.Locker
	logger    *zap.Logger
}

// NewLocator creates a position locator.
func NewLocator(
	repo *Repository,
	matcher Matcher,
	shots domain.Screenshotter,
	screens domain.ScreenMetrics,
	opts LocatorOptions,
	logger *zap.Logger,
) *Locator {
	l := &Locator{
		repo:      repo,
		matcher:   matcher,
		shots:     shots,
		screens:   screens,
		annotator: opts.Annotator,
		policies:  opts.Policies,
		threshold: opts.Threshold,
		lock:      opts.CaptureLock,
		logger:    logger,
	}
	if l.policies == nil {
		l.policies = DefaultTargetPolicies()
	}
	if l.threshold <= 0 {
		l.threshold = DefaultThreshold
	}
	if l.lock == nil {
		l.lock = &captureMu
	}
	return l
}

// Locate captures one screenshot and matches a single target.
func (l *Locator) Locate(target string) domain.LocateResult {
	return l.LocateMany([]string{target}, "", "")[target]
}

// LocateMany matches every target against one screenshot taken under the
// capture lock. An empty screenshotPath lets the screenshotter pick a name;
// an empty annotatedPath skips annotation. Results are keyed by the names
// passed in.
func (l *Locator) LocateMany(targets []string, screenshotPath, annotatedPath string) map[string]domain.LocateResult {
	resolution := l.resolution()
	results := make(map[string]domain.LocateResult, len(targets))
	templates := make(map[string]string, len(targets))

	for _, target := range targets {
		path, ok := l.repo.TemplatePath(target, resolution)
		if !ok {
			results[target] = domain.LocateResult{
				Target:        target,
				Resolution:    resolution,
				FailureReason: domain.ReasonTemplateNotFound,
				Detail:        fmt.Sprintf("root=%s", l.repo.Root()),
			}
			continue
		}
		templates[target] = path
	}
	if len(templates) == 0 {
		return results
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	shot, err := l.shots.Capture(screenshotPath)
	if err != nil {
		l.logger.Warn("screenshot failed", zap.Error(err))
		for target, tmpl := range templates {
			results[target] = domain.LocateResult{
				Target:        target,
				Resolution:    resolution,
				TemplatePath:  tmpl,
				FailureReason: domain.ReasonScreenshotFailed,
				Detail:        err.Error(),
			}
		}
		return results
	}

	frame := frameBounds(shot)
	var boxes []domain.Annotation
	for _, target := range targets {
		tmpl, ok := templates[target]
		if !ok {
			continue
		}
		res := l.matchOne(target, shot, tmpl, frame)
		res.Resolution = resolution
		if res.BBox != nil {
			boxes = append(boxes, domain.Annotation{Label: l.repo.CanonicalTarget(target), Box: *res.BBox})
		}
		results[target] = res
	}

	if annotatedPath != "" && l.annotator != nil {
		if err := l.annotator.Annotate(shot, annotatedPath, boxes); err != nil {
			l.logger.Warn("annotate failed", zap.String("path", annotatedPath), zap.Error(err))
		} else {
			for target, res := range results {
				if res.ScreenshotPath != "" {
					res.AnnotatedPath = annotatedPath
					results[target] = res
				}
			}
		}
	}

	return results
}

func (l *Locator) matchOne(target, shot, tmpl string, frame image.Rectangle) domain.LocateResult {
	res := domain.LocateResult{
		Target:         target,
		TemplatePath:   tmpl,
		ScreenshotPath: shot,
	}

	bbox, score, hasScore, err := l.match(target, shot, tmpl, frame)
	if err != nil {
		l.logger.Warn("template match failed", zap.String("target", target), zap.Error(err))
		res.FailureReason = domain.ReasonNoMatch
		res.Detail = err.Error()
		return res
	}

	res.Score, res.HasScore = score, hasScore
	if bbox == nil {
		res.FailureReason = domain.ReasonNoMatch
		return res
	}
	res.BBox = bbox

	l.logger.Debug("target located",
		zap.String("target", target),
		zap.Float64("score", score),
		zap.Int("x", bbox.X),
		zap.Int("y", bbox.Y))
	return res
}

// match prefers the scoring capability; a plain Matcher gets neither the
// per-target threshold nor the region policy.
func (l *Locator) match(target, shot, tmpl string, frame image.Rectangle) (*domain.BBox, float64, bool, error) {
	scoring, ok := l.matcher.(ScoringMatcher)
	if !ok {
		bbox, err := l.matcher.Match(shot, tmpl)
		return bbox, 0, false, err
	}

	policy, ok := l.policies[l.repo.CanonicalTarget(target)]
	opts := MatchOptions{Threshold: l.threshold}
	if ok {
		if policy.Threshold > 0 {
			opts.Threshold = policy.Threshold
		}
		if policy.Region != nil && !frame.Empty() {
			region := policy.Region(frame)
			opts.Region = &region
		}
	}

	bbox, score, err := scoring.MatchWithScore(shot, tmpl, opts)
	if err != nil && opts.Region != nil {
		l.logger.Debug("region match failed, retrying full frame",
			zap.String("target", target), zap.Error(err))
		opts.Region = nil
		bbox, score, err = scoring.MatchWithScore(shot, tmpl, opts)
	}
	if err != nil {
		return nil, 0, false, err
	}
	return bbox, score, true, nil
}

func (l *Locator) resolution() domain.Size {
	if l.screens == nil {
		return domain.Size{}
	}
	size, err := l.screens.PhysicalSize()
	if err != nil {
		l.logger.Debug("screen size unavailable", zap.Error(err))
		return domain.Size{}
	}
	return size
}

// frameBounds reads the screenshot dimensions without decoding pixels.
func frameBounds(path string) image.Rectangle {
	f, err := os.Open(path)
	if err != nil {
		return image.Rectangle{}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, cfg.Width, cfg.Height)
}

// Ensure Locator implements domain.Locator.
var _ domain.Locator = (*Locator)(nil)
