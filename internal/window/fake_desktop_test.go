package window

import (
	"fmt"
	"sync"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

type fakeWindow struct {
	title     string
	pid       int
	thread    uint32
	rect      domain.Rect
	hidden    bool
	owned     bool
	maximized bool
	topmost   bool

	ignoreMaximize bool // Maximize is accepted but has no effect
	ignoreTopmost  bool
}

// fakeDesktop is a scripted in-memory desktop.
type fakeDesktop struct {
	mu      sync.Mutex
	order   []domain.WindowHandle
	windows map[domain.WindowHandle]*fakeWindow

	foreground      domain.WindowHandle
	stealForeground domain.WindowHandle // Stays foreground whatever is requested
	currentThread   uint32

	attached      int
	detached      int
	setForeErr    error
	bringTopErr   error
	setActiveErr  error
	enumErr       error
	topmostCalls  int
	maximizeCalls int
}

func newFakeDesktop() *fakeDesktop {
	return &fakeDesktop{
		windows:       make(map[domain.WindowHandle]*fakeWindow),
		currentThread: 1,
	}
}

func (f *fakeDesktop) add(h domain.WindowHandle, w *fakeWindow) *fakeDesktop {
	f.order = append(f.order, h)
	f.windows[h] = w
	return f
}

func (f *fakeDesktop) remove(h domain.WindowHandle) {
	delete(f.windows, h)
}

func (f *fakeDesktop) get(h domain.WindowHandle) (*fakeWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok {
		return nil, fmt.Errorf("%w: hwnd=%d", domain.ErrInvalidHandle, h)
	}
	return w, nil
}

func (f *fakeDesktop) TopLevelWindows() ([]domain.WindowHandle, error) {
	if f.enumErr != nil {
		return nil, f.enumErr
	}
	var out []domain.WindowHandle
	for _, h := range f.order {
		if _, ok := f.windows[h]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeDesktop) IsVisible(h domain.WindowHandle) bool {
	w, err := f.get(h)
	return err == nil && !w.hidden
}

func (f *fakeDesktop) HasOwner(h domain.WindowHandle) bool {
	w, err := f.get(h)
	return err == nil && w.owned
}

func (f *fakeDesktop) Title(h domain.WindowHandle) (string, error) {
	w, err := f.get(h)
	if err != nil {
		return "", err
	}
	return w.title, nil
}

func (f *fakeDesktop) ProcessID(h domain.WindowHandle) (int, error) {
	w, err := f.get(h)
	if err != nil {
		return 0, err
	}
	return w.pid, nil
}

func (f *fakeDesktop) Rect(h domain.WindowHandle) (domain.Rect, error) {
	w, err := f.get(h)
	if err != nil {
		return domain.Rect{}, err
	}
	return w.rect, nil
}

func (f *fakeDesktop) IsMaximized(h domain.WindowHandle) (bool, error) {
	w, err := f.get(h)
	if err != nil {
		return false, err
	}
	return w.maximized, nil
}

func (f *fakeDesktop) IsTopmost(h domain.WindowHandle) (bool, error) {
	w, err := f.get(h)
	if err != nil {
		return false, err
	}
	return w.topmost, nil
}

func (f *fakeDesktop) Restore(h domain.WindowHandle) error {
	w, err := f.get(h)
	if err != nil {
		return err
	}
	w.maximized = false
	return nil
}

func (f *fakeDesktop) Maximize(h domain.WindowHandle) error {
	w, err := f.get(h)
	if err != nil {
		return err
	}
	f.maximizeCalls++
	if !w.ignoreMaximize {
		w.maximized = true
	}
	return nil
}

func (f *fakeDesktop) SetTopmost(h domain.WindowHandle) error {
	w, err := f.get(h)
	if err != nil {
		return err
	}
	f.topmostCalls++
	if !w.ignoreTopmost {
		w.topmost = true
	}
	return nil
}

func (f *fakeDesktop) ForegroundWindow() domain.WindowHandle {
	if f.stealForeground != 0 {
		return f.stealForeground
	}
	return f.foreground
}

func (f *fakeDesktop) ThreadID(h domain.WindowHandle) uint32 {
	w, err := f.get(h)
	if err != nil {
		return 0
	}
	return w.thread
}

func (f *fakeDesktop) CurrentThreadID() uint32 {
	return f.currentThread
}

func (f *fakeDesktop) AttachThreadInput(from, to uint32, attach bool) error {
	if attach {
		f.attached++
	} else {
		f.detached++
	}
	return nil
}

func (f *fakeDesktop) BringToTop(h domain.WindowHandle) error {
	if _, err := f.get(h); err != nil {
		return err
	}
	return f.bringTopErr
}

func (f *fakeDesktop) SetActive(h domain.WindowHandle) error {
	if _, err := f.get(h); err != nil {
		return err
	}
	return f.setActiveErr
}

func (f *fakeDesktop) SetForeground(h domain.WindowHandle) error {
	if _, err := f.get(h); err != nil {
		return err
	}
	if f.setForeErr != nil {
		return f.setForeErr
	}
	f.foreground = h
	return nil
}

// fakeProcesses returns fixed PIDs for any lookup.
type fakeProcesses struct {
	pids []int
	err  error
}

func (p *fakeProcesses) FindByNames(names ...string) ([]int, error) {
	return p.pids, p.err
}

func (p *fakeProcesses) IsRunning(pid int) bool {
	for _, x := range p.pids {
		if x == pid {
			return true
		}
	}
	return false
}
