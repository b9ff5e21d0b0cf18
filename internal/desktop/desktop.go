// Package desktop wraps the OS primitives for top-level windows, screen
// metrics and synthetic input. Only Windows has a real implementation;
// other platforms return domain.ErrUnsupported.
package desktop

import (
	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// Desktop is the set of window primitives the window controller is built on.
// Every call taking a handle returns domain.ErrInvalidHandle once the window
// has been destroyed.
type Desktop interface {
	// TopLevelWindows lists top-level windows in z-order.
	TopLevelWindows() ([]domain.WindowHandle, error)

	IsVisible(h domain.WindowHandle) bool
	HasOwner(h domain.WindowHandle) bool
	Title(h domain.WindowHandle) (string, error)
	ProcessID(h domain.WindowHandle) (int, error)
	Rect(h domain.WindowHandle) (domain.Rect, error)
	IsMaximized(h domain.WindowHandle) (bool, error)
	IsTopmost(h domain.WindowHandle) (bool, error)

	Restore(h domain.WindowHandle) error
	Maximize(h domain.WindowHandle) error
	SetTopmost(h domain.WindowHandle) error

	// ForegroundWindow returns 0 when no window has focus.
	ForegroundWindow() domain.WindowHandle
	ThreadID(h domain.WindowHandle) uint32
	CurrentThreadID() uint32
	AttachThreadInput(from, to uint32, attach bool) error
	BringToTop(h domain.WindowHandle) error
	SetActive(h domain.WindowHandle) error
	SetForeground(h domain.WindowHandle) error
}
