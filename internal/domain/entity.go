// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"fmt"
	"time"
)

// WindowHandle is an opaque reference to a top-level OS window.
// It is only valid while the window exists and must never be cached
// beyond a single operation.
type WindowHandle uintptr

// Rect is a window rectangle in screen coordinates.
type Rect struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// Width returns the non-negative width of the rectangle.
func (r Rect) Width() int {
	return max(0, r.Right-r.Left)
}

// Height returns the non-negative height of the rectangle.
func (r Rect) Height() int {
	return max(0, r.Bottom-r.Top)
}

// Area is width*height, used to rank candidate windows.
func (r Rect) Area() int {
	return r.Width() * r.Height()
}

// WindowSnapshot is a point-in-time description of a window.
// It is recreated on every query and never mutated.
type WindowSnapshot struct {
	Handle       WindowHandle `json:"hwnd" yaml:"hwnd"`
	Title        string       `json:"title" yaml:"title"`
	PID          int          `json:"pid" yaml:"pid"`
	Rect         *Rect        `json:"rect,omitempty" yaml:"rect,omitempty"`
	IsMaximized  bool         `json:"is_maximized" yaml:"is_maximized"`
	IsTopmost    bool         `json:"is_topmost" yaml:"is_topmost"`
	Foreground   WindowHandle `json:"foreground_hwnd" yaml:"foreground_hwnd"`
	IsForeground bool         `json:"is_foreground" yaml:"is_foreground"`
}

// Candidate is a window that belongs to the target application.
type Candidate struct {
	WindowSnapshot `yaml:",inline"`
	TitleMatch     bool `json:"title_match" yaml:"title_match"`
	PIDMatch       bool `json:"pid_match" yaml:"pid_match"`
}

// Point is a screen coordinate.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Size is a screen size in pixels.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// IsZero reports whether the size is unknown.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// BBox is an axis-aligned rectangle in screenshot pixel coordinates.
type BBox struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Center returns the integer center of the box.
func (b BBox) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// FailureReason explains why a locate attempt produced no bbox.
type FailureReason string

const (
	ReasonTemplateNotFound FailureReason = "template_not_found"
	ReasonScreenshotFailed FailureReason = "screenshot_failed"
	ReasonNoMatch          FailureReason = "no_match"
)

// LocateResult is the immutable result of one locate attempt.
// BBox and FailureReason are mutually exclusive.
type LocateResult struct {
	Target         string        `json:"target" yaml:"target"`
	Resolution     Size          `json:"resolution" yaml:"resolution"`
	TemplatePath   string        `json:"template_path,omitempty" yaml:"template_path,omitempty"`
	ScreenshotPath string        `json:"screenshot_path,omitempty" yaml:"screenshot_path,omitempty"`
	AnnotatedPath  string        `json:"annotated_path,omitempty" yaml:"annotated_path,omitempty"`
	Score          float64       `json:"score,omitempty" yaml:"score,omitempty"`
	HasScore       bool          `json:"has_score" yaml:"has_score"`
	BBox           *BBox         `json:"bbox,omitempty" yaml:"bbox,omitempty"`
	FailureReason  FailureReason `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`
	Detail         string        `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// OK reports whether the target was located.
func (r LocateResult) OK() bool {
	return r.BBox != nil
}

// Center returns the bbox center, if any.
func (r LocateResult) Center() (Point, bool) {
	if r.BBox == nil {
		return Point{}, false
	}
	return r.BBox.Center(), true
}

// Err maps the failure reason onto the error taxonomy.
func (r LocateResult) Err() error {
	if r.BBox != nil {
		return nil
	}
	var base error
	switch r.FailureReason {
	case ReasonTemplateNotFound:
		base = ErrTemplateNotFound
	case ReasonScreenshotFailed:
		base = ErrScreenshotFailed
	default:
		base = ErrNoMatch
	}
	msg := fmt.Sprintf("%s target=%q", base, r.Target)
	if r.HasScore {
		msg += fmt.Sprintf(" score=%.3f", r.Score)
	}
	if r.Detail != "" {
		msg += " " + r.Detail
	}
	return &LocateError{Reason: r.FailureReason, base: base, msg: msg}
}

// LocateError carries a locate failure and unwraps to its sentinel.
type LocateError struct {
	Reason FailureReason
	base   error
	msg    string
}

func (e *LocateError) Error() string { return e.msg }
func (e *LocateError) Unwrap() error { return e.base }

// Policy describes the target application: which processes own its
// windows and which title substrings identify them.
type Policy struct {
	ID              string
	Name            string
	ProcessNames    []string // Executable names, matched case-insensitively
	TitleSubstrings []string // Title fallback, only used while a process is running
	InstallPaths    []string // Used to tell "installed but not running" apart
}

// AppStatus is the install/run state of the target application.
type AppStatus string

const (
	AppRunning      AppStatus = "installed-running"
	AppNotRunning   AppStatus = "installed-not-running"
	AppNotInstalled AppStatus = "not-installed"
)

// FormatTime renders t for YAML output; the zero time renders empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}
