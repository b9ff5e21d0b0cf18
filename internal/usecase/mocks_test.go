package usecase

import (
	"errors"
	"fmt"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// mockController implements domain.WindowController for testing
type mockController struct {
	handles []domain.WindowHandle // Returned by successive finds; last repeats
	findErr error
	finds   int

	activateErrs map[domain.WindowHandle]error
	topmostErrs  map[domain.WindowHandle]error
	activated    []domain.WindowHandle
	pinned       []domain.WindowHandle
}

func (m *mockController) FindBestWindow() (domain.WindowHandle, []string, error) {
	m.finds++
	if m.findErr != nil {
		return 0, []string{"Notepad"}, m.findErr
	}
	i := min(m.finds-1, len(m.handles)-1)
	return m.handles[i], nil, nil
}

func (m *mockController) Describe(h domain.WindowHandle) (domain.WindowSnapshot, error) {
	return domain.WindowSnapshot{Handle: h, Title: "企业微信", IsMaximized: true, IsTopmost: true}, nil
}

func (m *mockController) ActivateAndMaximize(h domain.WindowHandle) error {
	m.activated = append(m.activated, h)
	return m.activateErrs[h]
}

func (m *mockController) SetTopmost(h domain.WindowHandle) error {
	m.pinned = append(m.pinned, h)
	return m.topmostErrs[h]
}

// mockScreenshotter records requested paths
type mockScreenshotter struct {
	err   error
	paths []string
}

func (m *mockScreenshotter) Capture(path string) (string, error) {
	m.paths = append(m.paths, path)
	if m.err != nil {
		return "", m.err
	}
	return path, nil
}

// mockLocator returns canned results per target
type mockLocator struct {
	results map[string]domain.LocateResult
	located []string
}

func (m *mockLocator) Locate(target string) domain.LocateResult {
	m.located = append(m.located, target)
	if r, ok := m.results[target]; ok {
		return r
	}
	return domain.LocateResult{Target: target, FailureReason: domain.ReasonNoMatch, HasScore: true, Score: 0.42}
}

func (m *mockLocator) LocateMany(targets []string, _, _ string) map[string]domain.LocateResult {
	out := make(map[string]domain.LocateResult, len(targets))
	for _, t := range targets {
		out[t] = m.Locate(t)
	}
	return out
}

// mockInputter records every input event
type mockInputter struct {
	clickErr error
	typeErr  error
	events   []string
}

func (m *mockInputter) MoveAndClick(x, y int) error {
	if m.clickErr != nil {
		return m.clickErr
	}
	m.events = append(m.events, fmt.Sprintf("click %d,%d", x, y))
	return nil
}

func (m *mockInputter) TypeText(text string) error {
	if m.typeErr != nil {
		return m.typeErr
	}
	m.events = append(m.events, "type "+text)
	return nil
}

func (m *mockInputter) PressAltS() error {
	m.events = append(m.events, "alt+s")
	return nil
}

type mockHost struct {
	label string
	err   error
}

func (m mockHost) OSLabel() (string, error) { return m.label, m.err }

type mockScreens struct {
	physical domain.Size
	logical  domain.Size
	err      error
}

func (m mockScreens) PhysicalSize() (domain.Size, error) { return m.physical, m.err }
func (m mockScreens) LogicalSize() (domain.Size, error)  { return m.logical, m.err }

type mockProcesses struct {
	pids []int
	err  error
}

func (m mockProcesses) FindByNames(...string) ([]int, error) { return m.pids, m.err }
func (m mockProcesses) IsRunning(int) bool                   { return len(m.pids) > 0 }

// mockFileSystem treats paths as-is
type mockFileSystem struct {
	existing map[string]bool
}

func (m mockFileSystem) Exists(path string) bool       { return m.existing[path] }
func (m mockFileSystem) ExpandPath(path string) string { return path }

var errBoom = errors.New("boom")
