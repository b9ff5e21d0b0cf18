//go:build windows

package desktop

import (
	"errors"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// ScreenMetrics implements domain.ScreenMetrics with GDI device caps.
type ScreenMetrics struct{}

// NewScreenMetrics returns the Windows screen metrics.
func NewScreenMetrics() domain.ScreenMetrics {
	return &ScreenMetrics{}
}

// PhysicalSize reads DESKTOPHORZRES/DESKTOPVERTRES, which ignore DPI scaling.
func (s *ScreenMetrics) PhysicalSize() (domain.Size, error) {
	hdc, _, _ := procGetDC.Call(0)
	if hdc == 0 {
		return domain.Size{}, errors.New("GetDC failed")
	}
	defer procReleaseDC.Call(0, hdc)

	w, _, _ := procGetDeviceCaps.Call(hdc, desktopHorzRes)
	h, _, _ := procGetDeviceCaps.Call(hdc, desktopVertRes)
	size := domain.Size{Width: int(int32(w)), Height: int(int32(h))}
	if size.IsZero() {
		return domain.Size{}, errors.New("GetDeviceCaps returned no resolution")
	}
	return size, nil
}

// LogicalSize is the size seen by a DPI-unaware process. Once this process
// is DPI aware GetSystemMetrics reports physical pixels, so the size is
// scaled back by the system DPI.
func (s *ScreenMetrics) LogicalSize() (domain.Size, error) {
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)
	size := domain.Size{Width: int(int32(w)), Height: int(int32(h))}
	if size.IsZero() {
		return domain.Size{}, errors.New("GetSystemMetrics returned no resolution")
	}

	if procGetDpiForSystem.Find() == nil {
		if dpi, _, _ := procGetDpiForSystem.Call(); dpi > 0 && dpi != 96 {
			if phys, err := s.PhysicalSize(); err == nil && phys == size {
				size = domain.Size{
					Width:  (size.Width*96 + int(dpi)/2) / int(dpi),
					Height: (size.Height*96 + int(dpi)/2) / int(dpi),
				}
			}
		}
	}
	return size, nil
}

var _ domain.ScreenMetrics = (*ScreenMetrics)(nil)
