//go:build windows

package desktop

import (
	"syscall"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procEnumWindows              = user32.NewProc("EnumWindows")
	procIsWindow                 = user32.NewProc("IsWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procGetWindow                = user32.NewProc("GetWindow")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procIsZoomed                 = user32.NewProc("IsZoomed")
	procGetWindowLongPtrW        = user32.NewProc("GetWindowLongPtrW")
	procGetWindowLongW           = user32.NewProc("GetWindowLongW") // 386 has no *Ptr variant
	procShowWindow               = user32.NewProc("ShowWindow")
	procSetWindowPos             = user32.NewProc("SetWindowPos")

	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procAttachThreadInput   = user32.NewProc("AttachThreadInput")
	procBringWindowToTop    = user32.NewProc("BringWindowToTop")
	procSetActiveWindow     = user32.NewProc("SetActiveWindow")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")

	procGetSystemMetrics              = user32.NewProc("GetSystemMetrics")
	procGetDpiForSystem               = user32.NewProc("GetDpiForSystem") // Win10+
	procSetProcessDpiAwarenessContext = user32.NewProc("SetProcessDpiAwarenessContext")
	procSetProcessDPIAware            = user32.NewProc("SetProcessDPIAware")
	procGetDC                         = user32.NewProc("GetDC")
	procReleaseDC                     = user32.NewProc("ReleaseDC")
	procGetDeviceCaps                 = gdi32.NewProc("GetDeviceCaps")

	procSetCursorPos = user32.NewProc("SetCursorPos")
	procMouseEvent   = user32.NewProc("mouse_event")
	procKeybdEvent   = user32.NewProc("keybd_event")
	procSendInput    = user32.NewProc("SendInput")
)

const (
	gwOwner     = 4
	gwlExStyle  = -20
	wsExTopmost = 0x00000008

	swRestore       = 9
	swShowMaximized = 3

	swpNoSize     = 0x0001
	swpNoMove     = 0x0002
	swpShowWindow = 0x0040

	smCxScreen = 0
	smCyScreen = 1

	desktopVertRes = 117
	desktopHorzRes = 118

	errorInvalidWindowHandle = syscall.Errno(1400)
)

// HWND_TOPMOST is (HWND)-1
var hwndTopmost = ^uintptr(0)

// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2 is (HANDLE)-4
var dpiAwarenessPerMonitorV2 = ^uintptr(3)
