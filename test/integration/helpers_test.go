//go:build integration

package integration

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/infra"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/position"
	"github.com/eliteGoblin/focusd/wecom_guard/test/fixtures"
)

// Desktop layout shared by the specs. The screenshot is small; the
// reported screen size only drives template folder selection.
const (
	deskW, deskH   = 320, 180
	inputX, inputY = 30, 150
	sendX, sendY   = 280, 160
)

var (
	inputTemplate = fixtures.Pattern(24, 12, 101)
	sendTemplate  = fixtures.Pattern(16, 12, 202)
)

func composeDesktop() image.Image {
	return fixtures.NewFakeDesktop(deskW, deskH).
		Paste(inputTemplate, inputX, inputY).
		Paste(sendTemplate, sendX, sendY).
		Image
}

// buildTemplates writes the real templates under 1920x1080 and
// uncorrelated decoys of the same size under 1280x720.
func buildTemplates(root string) error {
	tree := fixtures.NewFakeTemplateTree(root)
	steps := []struct {
		folder, file string
		img          image.Image
	}{
		{"1920x1080", "input_box.png", inputTemplate},
		{"1920x1080", "send_button.png", sendTemplate},
		{"1280x720", "input_box.png", fixtures.Pattern(24, 12, 303)},
		{"1280x720", "send_button.png", fixtures.Pattern(16, 12, 404)},
	}
	for _, s := range steps {
		if err := tree.AddTemplate(s.folder, s.file, s.img); err != nil {
			return err
		}
	}
	return nil
}

// newLocator wires the real repository, native matcher, screenshotter and
// annotator over the composed desktop.
func newLocator(root string, screens domain.ScreenMetrics) *position.Locator {
	return position.NewLocator(
		position.NewRepository(filepath.Join(root, "templates"), nil),
		position.NewNativeMatcher(position.DefaultThreshold),
		newShots(root),
		screens,
		position.LocatorOptions{
			Annotator:   infra.NewAnnotator(),
			CaptureLock: &sync.Mutex{},
		},
		zap.NewNop(),
	)
}

// newShots captures the composed desktop; generated names go under
// <root>/shots.
func newShots(root string) *infra.Screenshotter {
	return infra.NewScreenshotterWithCapture(filepath.Join(root, "shots"), func() (image.Image, error) {
		return composeDesktop(), nil
	})
}

type staticScreens struct {
	size domain.Size
}

func (s staticScreens) PhysicalSize() (domain.Size, error) { return s.size, nil }
func (s staticScreens) LogicalSize() (domain.Size, error)  { return s.size, nil }

// stubController is a window controller over one scripted window.
type stubController struct {
	mu        sync.Mutex
	present   bool
	maximized bool
	topmost   bool
	calls     []string
}

func (c *stubController) FindBestWindow() (domain.WindowHandle, []string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.present {
		return 0, []string{"Notepad"}, fmt.Errorf("%w: sample_titles=[\"Notepad\"]", domain.ErrWindowNotFound)
	}
	return 42, []string{"企业微信"}, nil
}

func (c *stubController) Describe(h domain.WindowHandle) (domain.WindowSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.WindowSnapshot{Handle: h, Title: "企业微信", IsMaximized: c.maximized, IsTopmost: c.topmost}, nil
}

func (c *stubController) ActivateAndMaximize(domain.WindowHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "maximize")
	c.maximized = true
	return nil
}

func (c *stubController) SetTopmost(domain.WindowHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "topmost")
	c.topmost = true
	return nil
}

func (c *stubController) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// recordingInputter records clicks and keystrokes.
type recordingInputter struct {
	events []string
}

func (r *recordingInputter) MoveAndClick(x, y int) error {
	r.events = append(r.events, fmt.Sprintf("click %d,%d", x, y))
	return nil
}

func (r *recordingInputter) TypeText(text string) error {
	r.events = append(r.events, "type "+text)
	return nil
}

func (r *recordingInputter) PressAltS() error {
	r.events = append(r.events, "alt+s")
	return nil
}
