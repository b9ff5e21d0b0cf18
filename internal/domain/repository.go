package domain

// ProcessManager handles OS process lookups.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByNames returns PIDs of processes whose executable name equals one
	// of names (case-insensitive).
	FindByNames(names ...string) ([]int, error)

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool
}

// FileSystemManager handles filesystem queries.
type FileSystemManager interface {
	// Exists checks if a path exists.
	Exists(path string) bool

	// ExpandPath expands ~ and %VAR% / $VAR references.
	ExpandPath(path string) string
}

// Screenshotter captures the desktop to a PNG file.
type Screenshotter interface {
	// Capture writes a full-desktop image to path (or a generated path when
	// empty) and returns the written path. Writes are atomic.
	Capture(path string) (string, error)
}

// ScreenMetrics reports the current screen size.
type ScreenMetrics interface {
	// PhysicalSize is the size in device pixels.
	PhysicalSize() (Size, error)

	// LogicalSize is the size as reported to DPI-unaware callers.
	LogicalSize() (Size, error)
}

// Inputter simulates mouse and keyboard input at screen coordinates.
type Inputter interface {
	MoveAndClick(x, y int) error
	TypeText(text string) error
	PressAltS() error
}

// HostInfo describes the operating system.
type HostInfo interface {
	// OSLabel returns a short label such as win10, win11, winserver2022, linux.
	OSLabel() (string, error)
}

// WindowController discovers and places the target application's window.
type WindowController interface {
	// FindBestWindow returns the best candidate window and up to 50 sampled
	// titles seen during enumeration (also on failure).
	FindBestWindow() (WindowHandle, []string, error)

	// Describe returns a fresh snapshot of the window.
	Describe(h WindowHandle) (WindowSnapshot, error)

	// ActivateAndMaximize restores, maximizes and foregrounds the window.
	ActivateAndMaximize(h WindowHandle) error

	// SetTopmost pins the window above non-topmost windows and foregrounds it.
	SetTopmost(h WindowHandle) error
}

// Locator finds UI elements on screen.
type Locator interface {
	// Locate captures one screenshot and matches a single target.
	Locate(target string) LocateResult

	// LocateMany matches every target against a single screenshot.
	LocateMany(targets []string, screenshotPath, annotatedPath string) map[string]LocateResult
}

// Annotation is one labelled box drawn onto a screenshot.
type Annotation struct {
	Label string
	Box   BBox
}

// Annotator draws located boxes onto a copy of a screenshot.
type Annotator interface {
	// Annotate writes src with boxes drawn to dst; with no boxes dst is a
	// plain copy of src.
	Annotate(src, dst string, boxes []Annotation) error
}
