// Package window finds the target application's main window and places it:
// restore, maximize, force foreground, pin topmost.
package window

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/desktop"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// MaxSampleTitles bounds the titles kept for diagnostics.
const MaxSampleTitles = 50

// Config holds window controller configuration.
type Config struct {
	ProcessNames    []string      // Executables owning the target windows
	TitleSubstrings []string      // Title fallback, case-insensitive
	SettleDelay     time.Duration // Pause after placement commands
}

// DefaultConfig builds a config from an application policy.
func DefaultConfig(p domain.Policy) Config {
	return Config{
		ProcessNames:    p.ProcessNames,
		TitleSubstrings: p.TitleSubstrings,
		SettleDelay:     50 * time.Millisecond,
	}
}

// Controller implements domain.WindowController.
// It never retries internally; see RetryInvalidHandle.
type Controller struct {
	desk   desktop.Desktop
	procs  domain.ProcessManager
	config Config
	logger *zap.Logger
	sleep  func(time.Duration)
}

// NewController creates a window controller.
func NewController(desk desktop.Desktop, procs domain.ProcessManager, config Config, logger *zap.Logger) *Controller {
	return &Controller{
		desk:   desk,
		procs:  procs,
		config: config,
		logger: logger,
		sleep:  time.Sleep,
	}
}

func (c *Controller) settle() {
	if c.config.SettleDelay > 0 {
		c.sleep(c.config.SettleDelay)
	}
}

// targetPIDs returns the PIDs of running target processes. A lookup error
// yields an empty set, which also disables the title fallback.
func (c *Controller) targetPIDs() map[int]struct{} {
	pids, err := c.procs.FindByNames(c.config.ProcessNames...)
	if err != nil {
		c.logger.Warn("process lookup failed", zap.Error(err))
		return nil
	}
	set := make(map[int]struct{}, len(pids))
	for _, pid := range pids {
		set[pid] = struct{}{}
	}
	return set
}

func (c *Controller) titleMatches(title string) bool {
	lower := strings.ToLower(title)
	for _, sub := range c.config.TitleSubstrings {
		if sub != "" && strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// EnumerateCandidates lists visible, ownerless, titled top-level windows
// owned by a target process, or whose title matches while at least one
// target process runs. The second value holds up to MaxSampleTitles titles
// seen during enumeration.
func (c *Controller) EnumerateCandidates() ([]domain.Candidate, []string, error) {
	pids := c.targetPIDs()

	handles, err := c.desk.TopLevelWindows()
	if err != nil {
		return nil, nil, err
	}

	var candidates []domain.Candidate
	var samples []string
	for _, h := range handles {
		if !c.desk.IsVisible(h) || c.desk.HasOwner(h) {
			continue
		}
		title, err := c.desk.Title(h)
		if err != nil {
			continue // Window vanished mid-enumeration
		}
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		if len(samples) < MaxSampleTitles {
			samples = append(samples, title)
		}

		// No target process: never fall back to titles, unrelated windows
		// (browser tabs, docs) often contain the same words.
		if len(pids) == 0 {
			continue
		}

		pid, err := c.desk.ProcessID(h)
		if err != nil {
			continue
		}
		_, pidMatch := pids[pid]
		titleMatch := c.titleMatches(title)
		if !pidMatch && !titleMatch {
			continue
		}

		snap, err := c.Describe(h)
		if err != nil {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			WindowSnapshot: snap,
			TitleMatch:     titleMatch,
			PIDMatch:       pidMatch,
		})
	}

	return candidates, samples, nil
}

// RankCandidates orders candidates best first: title-matched before
// pid-only, then larger area.
func RankCandidates(candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.TitleMatch != b.TitleMatch {
			return a.TitleMatch
		}
		return area(a) > area(b)
	})
}

func area(c domain.Candidate) int {
	if c.Rect == nil {
		return 0
	}
	return c.Rect.Area()
}

// FindBestWindow returns the best-ranked candidate. The sampled titles are
// returned on failure too.
func (c *Controller) FindBestWindow() (domain.WindowHandle, []string, error) {
	candidates, samples, err := c.EnumerateCandidates()
	if err != nil {
		return 0, samples, fmt.Errorf("%w: %v", domain.ErrWindowNotFound, err)
	}
	if len(candidates) == 0 {
		return 0, samples, fmt.Errorf("%w: processes=%v titles=%v sample_titles=%q",
			domain.ErrWindowNotFound, c.config.ProcessNames, c.config.TitleSubstrings, head(samples, 5))
	}

	RankCandidates(candidates)
	best := candidates[0]
	c.logger.Debug("window selected",
		zap.Uintptr("hwnd", uintptr(best.Handle)),
		zap.String("title", best.Title),
		zap.Bool("title_match", best.TitleMatch),
		zap.Int("candidates", len(candidates)))
	return best.Handle, samples, nil
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Describe returns a fresh snapshot of the window.
func (c *Controller) Describe(h domain.WindowHandle) (domain.WindowSnapshot, error) {
	title, err := c.desk.Title(h)
	if err != nil {
		return domain.WindowSnapshot{}, err
	}
	pid, err := c.desk.ProcessID(h)
	if err != nil {
		return domain.WindowSnapshot{}, err
	}
	maximized, err := c.desk.IsMaximized(h)
	if err != nil {
		return domain.WindowSnapshot{}, err
	}
	topmost, err := c.desk.IsTopmost(h)
	if err != nil {
		return domain.WindowSnapshot{}, err
	}

	snap := domain.WindowSnapshot{
		Handle:      h,
		Title:       strings.TrimSpace(title),
		PID:         pid,
		IsMaximized: maximized,
		IsTopmost:   topmost,
	}
	if rect, err := c.desk.Rect(h); err == nil {
		snap.Rect = &rect
	}
	snap.Foreground = c.desk.ForegroundWindow()
	snap.IsForeground = snap.Foreground == h
	return snap, nil
}

// ActivateAndMaximize restores and maximizes the window, forces it to the
// foreground, then verifies it is maximized.
func (c *Controller) ActivateAndMaximize(h domain.WindowHandle) error {
	if err := c.desk.Restore(h); err != nil {
		return err
	}
	if err := c.desk.Maximize(h); err != nil {
		return err
	}
	c.settle()

	if err := c.ForceForeground(h); err != nil {
		return err
	}
	c.settle()

	maximized, err := c.desk.IsMaximized(h)
	if err != nil {
		return err
	}
	if !maximized {
		return fmt.Errorf("%w: maximize hwnd=%d title=%q",
			domain.ErrActionVerificationFailed, h, c.titleOf(h))
	}
	return nil
}

// SetTopmost pins the window, verifies WS_EX_TOPMOST, then forces it to the
// foreground. Topmost but not foreground is reported as failure.
func (c *Controller) SetTopmost(h domain.WindowHandle) error {
	if err := c.desk.SetTopmost(h); err != nil {
		return err
	}
	c.settle()

	topmost, err := c.desk.IsTopmost(h)
	if err != nil {
		return err
	}
	if !topmost {
		return fmt.Errorf("%w: topmost hwnd=%d title=%q",
			domain.ErrActionVerificationFailed, h, c.titleOf(h))
	}

	return c.ForceForeground(h)
}

// ForceForeground brings the window to the foreground. When another thread
// owns the foreground window the two input queues are attached for the
// duration of the call; the attachment is always released.
func (c *Controller) ForceForeground(h domain.WindowHandle) error {
	// Thread input attachment is per OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	current := c.desk.CurrentThreadID()
	var fgThread uint32
	if fg := c.desk.ForegroundWindow(); fg != 0 {
		fgThread = c.desk.ThreadID(fg)
	}

	if fgThread != 0 && fgThread != current {
		if err := c.desk.AttachThreadInput(fgThread, current, true); err != nil {
			c.logger.Debug("attach thread input failed", zap.Error(err))
		} else {
			defer func() {
				if err := c.desk.AttachThreadInput(fgThread, current, false); err != nil {
					c.logger.Warn("detach thread input failed", zap.Error(err))
				}
			}()
		}
	}

	// Only SetForeground decides the outcome.
	if err := c.desk.BringToTop(h); err != nil {
		c.logger.Debug("bring window to top failed", zap.Error(err))
	}
	if err := c.desk.SetActive(h); err != nil {
		c.logger.Debug("set active window failed", zap.Error(err))
	}
	if err := c.desk.SetForeground(h); err != nil {
		return err
	}
	c.settle()

	now := c.desk.ForegroundWindow()
	if now != 0 && now != h {
		return fmt.Errorf("%w: foreground target_hwnd=%d target_title=%q fg_hwnd=%d fg_title=%q",
			domain.ErrActionVerificationFailed, h, c.titleOf(h), now, c.titleOf(now))
	}
	return nil
}

func (c *Controller) titleOf(h domain.WindowHandle) string {
	title, _ := c.desk.Title(h)
	return strings.TrimSpace(title)
}

// Ensure Controller implements domain.WindowController.
var _ domain.WindowController = (*Controller)(nil)
