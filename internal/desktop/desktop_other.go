//go:build !windows

package desktop

import (
	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// unsupported answers every call with domain.ErrUnsupported.
type unsupported struct{}

// New returns the platform desktop.
func New() (Desktop, error) {
	return nil, domain.ErrUnsupported
}

// NewScreenMetrics returns nil off Windows; callers fall back to display bounds.
func NewScreenMetrics() domain.ScreenMetrics {
	return nil
}

// NewInputter returns an inputter that always fails.
func NewInputter() domain.Inputter {
	return unsupported{}
}

// EnableDPIAwareness is a no-op off Windows.
func EnableDPIAwareness() error {
	return nil
}

func (unsupported) MoveAndClick(x, y int) error { return domain.ErrUnsupported }
func (unsupported) TypeText(text string) error { return domain.ErrUnsupported }
func (unsupported) PressAltS() error { return domain.ErrUnsupported }

var _ domain.Inputter = unsupported{}
