//go:build windows

package desktop

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

type win32Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// Win32 implements Desktop over user32.
type Win32 struct{}

// New returns the platform desktop.
func New() (Desktop, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupported, err)
	}
	return &Win32{}, nil
}

// EnableDPIAwareness makes the process per-monitor DPI aware so window
// rects, screenshots and cursor positions share physical pixels.
func EnableDPIAwareness() error {
	if procSetProcessDpiAwarenessContext.Find() == nil {
		if r, _, _ := procSetProcessDpiAwarenessContext.Call(dpiAwarenessPerMonitorV2); r != 0 {
			return nil
		}
	}
	if procSetProcessDPIAware.Find() == nil {
		if r, _, _ := procSetProcessDPIAware.Call(); r != 0 {
			return nil
		}
	}
	return errors.New("could not enable DPI awareness")
}

// EnumWindows callbacks are a scarce resource; create one and serialize
// enumeration through it.
var (
	enumMu       sync.Mutex
	enumFound    []domain.WindowHandle
	enumCallback = windows.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		enumFound = append(enumFound, domain.WindowHandle(hwnd))
		return 1
	})
)

func (w *Win32) TopLevelWindows() ([]domain.WindowHandle, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumFound = nil
	r, _, err := procEnumWindows.Call(enumCallback, 0)
	found := enumFound
	enumFound = nil
	if r == 0 && len(found) == 0 {
		return nil, fmt.Errorf("EnumWindows: %w", err)
	}
	return found, nil
}

func isWindow(h domain.WindowHandle) bool {
	r, _, _ := procIsWindow.Call(uintptr(h))
	return r != 0
}

// checkHandle maps a dead handle to domain.ErrInvalidHandle.
func checkHandle(h domain.WindowHandle) error {
	if h == 0 || !isWindow(h) {
		return fmt.Errorf("%w: hwnd=%d", domain.ErrInvalidHandle, h)
	}
	return nil
}

// callErr converts a failed call's last error, mapping
// ERROR_INVALID_WINDOW_HANDLE onto the domain sentinel.
func callErr(op string, h domain.WindowHandle, err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) && errno == errorInvalidWindowHandle {
		return fmt.Errorf("%w: %s hwnd=%d", domain.ErrInvalidHandle, op, h)
	}
	if !isWindow(h) {
		return fmt.Errorf("%w: %s hwnd=%d", domain.ErrInvalidHandle, op, h)
	}
	return fmt.Errorf("%s hwnd=%d: %v", op, h, err)
}

func (w *Win32) IsVisible(h domain.WindowHandle) bool {
	r, _, _ := procIsWindowVisible.Call(uintptr(h))
	return r != 0
}

func (w *Win32) HasOwner(h domain.WindowHandle) bool {
	r, _, _ := procGetWindow.Call(uintptr(h), gwOwner)
	return r != 0
}

func (w *Win32) Title(h domain.WindowHandle) (string, error) {
	if err := checkHandle(h); err != nil {
		return "", err
	}
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(h))
	if n == 0 {
		return "", nil
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf), nil
}

func (w *Win32) ProcessID(h domain.WindowHandle) (int, error) {
	var pid uint32
	r, _, err := procGetWindowThreadProcessId.Call(uintptr(h), uintptr(unsafe.Pointer(&pid)))
	if r == 0 {
		return 0, callErr("GetWindowThreadProcessId", h, err)
	}
	return int(pid), nil
}

func (w *Win32) Rect(h domain.WindowHandle) (domain.Rect, error) {
	var rc win32Rect
	r, _, err := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&rc)))
	if r == 0 {
		return domain.Rect{}, callErr("GetWindowRect", h, err)
	}
	return domain.Rect{
		Left:   int(rc.Left),
		Top:    int(rc.Top),
		Right:  int(rc.Right),
		Bottom: int(rc.Bottom),
	}, nil
}

func (w *Win32) IsMaximized(h domain.WindowHandle) (bool, error) {
	if err := checkHandle(h); err != nil {
		return false, err
	}
	r, _, _ := procIsZoomed.Call(uintptr(h))
	return r != 0, nil
}

func (w *Win32) IsTopmost(h domain.WindowHandle) (bool, error) {
	if err := checkHandle(h); err != nil {
		return false, err
	}
	idx := gwlExStyle
	proc := procGetWindowLongPtrW
	if proc.Find() != nil {
		proc = procGetWindowLongW
	}
	style, _, _ := proc.Call(uintptr(h), uintptr(idx))
	return style&wsExTopmost != 0, nil
}

func (w *Win32) Restore(h domain.WindowHandle) error {
	return w.show(h, swRestore)
}

func (w *Win32) Maximize(h domain.WindowHandle) error {
	return w.show(h, swShowMaximized)
}

// ShowWindow returns the previous visibility, not success, so validity is
// checked before and after the call.
func (w *Win32) show(h domain.WindowHandle, cmd uintptr) error {
	if err := checkHandle(h); err != nil {
		return err
	}
	procShowWindow.Call(uintptr(h), cmd)
	return checkHandle(h)
}

func (w *Win32) SetTopmost(h domain.WindowHandle) error {
	r, _, err := procSetWindowPos.Call(
		uintptr(h),
		hwndTopmost,
		0, 0, 0, 0,
		swpNoMove|swpNoSize|swpShowWindow,
	)
	if r == 0 {
		return callErr("SetWindowPos", h, err)
	}
	return nil
}

func (w *Win32) ForegroundWindow() domain.WindowHandle {
	r, _, _ := procGetForegroundWindow.Call()
	return domain.WindowHandle(r)
}

func (w *Win32) ThreadID(h domain.WindowHandle) uint32 {
	r, _, _ := procGetWindowThreadProcessId.Call(uintptr(h), 0)
	return uint32(r)
}

func (w *Win32) CurrentThreadID() uint32 {
	return windows.GetCurrentThreadId()
}

func (w *Win32) AttachThreadInput(from, to uint32, attach bool) error {
	var flag uintptr
	if attach {
		flag = 1
	}
	r, _, err := procAttachThreadInput.Call(uintptr(from), uintptr(to), flag)
	if r == 0 {
		return fmt.Errorf("AttachThreadInput(%d, %d, %v): %v", from, to, attach, err)
	}
	return nil
}

func (w *Win32) BringToTop(h domain.WindowHandle) error {
	r, _, err := procBringWindowToTop.Call(uintptr(h))
	if r == 0 {
		return callErr("BringWindowToTop", h, err)
	}
	return nil
}

// SetActive returns NULL both on failure and when no window was previously
// active, so only a dead handle counts as an error.
func (w *Win32) SetActive(h domain.WindowHandle) error {
	procSetActiveWindow.Call(uintptr(h))
	return checkHandle(h)
}

// SetForeground may be refused by the foreground lock. A success here is
// not trusted either; the caller re-reads the foreground window.
func (w *Win32) SetForeground(h domain.WindowHandle) error {
	r, _, err := procSetForegroundWindow.Call(uintptr(h))
	if r == 0 {
		return callErr("SetForegroundWindow", h, err)
	}
	return nil
}

var _ Desktop = (*Win32)(nil)
