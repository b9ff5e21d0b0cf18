package infra

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kbinani/screenshot"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// CaptureFunc grabs the desktop as an image.
type CaptureFunc func() (image.Image, error)

// Screenshotter implements domain.Screenshotter using kbinani/screenshot.
type Screenshotter struct {
	dir     string
	capture CaptureFunc
	now     func() time.Time
}

// NewScreenshotter captures the primary display; generated file names go
// under dir.
func NewScreenshotter(dir string) *Screenshotter {
	return &Screenshotter{dir: dir, capture: capturePrimaryDisplay, now: time.Now}
}

// NewScreenshotterWithCapture uses a custom capture source (for testing).
func NewScreenshotterWithCapture(dir string, capture CaptureFunc) *Screenshotter {
	return &Screenshotter{dir: dir, capture: capture, now: time.Now}
}

// Capture writes a PNG of the desktop to path, or to
// <dir>/desktop_YYYYmmdd_HHMMSS.png when path is empty.
func (s *Screenshotter) Capture(path string) (string, error) {
	if path == "" {
		path = filepath.Join(s.dir, fmt.Sprintf("desktop_%s.png", s.now().Format("20060102_150405")))
	}

	img, err := s.capture()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrScreenshotFailed, err)
	}

	if err := WritePNG(path, img); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrScreenshotFailed, err)
	}
	return path, nil
}

func capturePrimaryDisplay() (image.Image, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active display")
	}
	bounds := screenshot.GetDisplayBounds(0)
	return screenshot.CaptureRect(bounds)
}

// WritePNG encodes img to path atomically (temp file + rename) so a
// concurrent reader never sees a partially written image.
func WritePNG(path string, img image.Image) error {
	return atomicWrite(path, func(w io.Writer) error {
		return png.Encode(w, img)
	})
}

// CopyFile copies src to dst atomically.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	return atomicWrite(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

func atomicWrite(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Create temp file in same directory for atomic rename
	tmpFile, err := os.CreateTemp(dir, ".capture-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on any error
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := write(tmpFile); err != nil {
		tmpFile.Close()
		return err
	}

	// Sync to disk before rename
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	success = true
	return nil
}

// Ensure Screenshotter implements domain.Screenshotter.
var _ domain.Screenshotter = (*Screenshotter)(nil)
