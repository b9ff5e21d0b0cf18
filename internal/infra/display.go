package infra

import (
	"fmt"

	"github.com/kbinani/screenshot"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// DisplayMetrics implements domain.ScreenMetrics from the primary display
// bounds. It cannot tell physical from logical pixels, so both report the
// same size; the Windows desktop implementation is preferred when available.
type DisplayMetrics struct {
	bounds func() (domain.Size, error)
}

// NewDisplayMetrics reads bounds from kbinani/screenshot.
func NewDisplayMetrics() *DisplayMetrics {
	return &DisplayMetrics{bounds: primaryBounds}
}

func primaryBounds() (domain.Size, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return domain.Size{}, fmt.Errorf("no active display")
	}
	b := screenshot.GetDisplayBounds(0)
	return domain.Size{Width: b.Dx(), Height: b.Dy()}, nil
}

// PhysicalSize returns the primary display size.
func (d *DisplayMetrics) PhysicalSize() (domain.Size, error) {
	return d.bounds()
}

// LogicalSize returns the primary display size.
func (d *DisplayMetrics) LogicalSize() (domain.Size, error) {
	return d.bounds()
}

// Ensure DisplayMetrics implements domain.ScreenMetrics.
var _ domain.ScreenMetrics = (*DisplayMetrics)(nil)
