package usecase

import (
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// SupportedOSPrefixes are the OS labels the desktop automation runs on.
var SupportedOSPrefixes = []string{"win10", "win11", "winserver"}

// EnvReport describes the host as seen by the env check.
type EnvReport struct {
	OSLabel     string           `yaml:"os_label"`
	OSSupported bool             `yaml:"os_supported"`
	Resolution  *domain.Size     `yaml:"resolution"`
	AppStatus   domain.AppStatus `yaml:"app_status"`
	Screenshot  string           `yaml:"screenshot,omitempty"`
	Errors      []string         `yaml:"errors,omitempty"`
}

// EnvChecker decides whether the minimal runtime environment is present:
// a supported OS, the target app running, and a known screen resolution.
type EnvChecker struct {
	host    domain.HostInfo
	screens domain.ScreenMetrics
	procs   domain.ProcessManager
	fs      domain.FileSystemManager
	shots   domain.Screenshotter
	policy  domain.Policy
	logger  *zap.Logger

	// ScreenshotPath enables a desktop capture when set.
	ScreenshotPath string
}

// NewEnvChecker creates an env checker for the given application policy.
// shots may be nil.
func NewEnvChecker(
	host domain.HostInfo,
	screens domain.ScreenMetrics,
	procs domain.ProcessManager,
	fs domain.FileSystemManager,
	shots domain.Screenshotter,
	policy domain.Policy,
	logger *zap.Logger,
) *EnvChecker {
	return &EnvChecker{
		host:    host,
		screens: screens,
		procs:   procs,
		fs:      fs,
		shots:   shots,
		policy:  policy,
		logger:  logger,
	}
}

// Check gathers the report and whether the environment is minimally ready.
// Individual probe failures land in the report rather than failing the check.
func (c *EnvChecker) Check() (bool, EnvReport) {
	return c.check(c.ScreenshotPath)
}

// CheckAndCapture is Check with a desktop capture written to path.
func (c *EnvChecker) CheckAndCapture(path string) (bool, EnvReport) {
	return c.check(path)
}

func (c *EnvChecker) check(shotPath string) (bool, EnvReport) {
	var report EnvReport

	label, err := c.host.OSLabel()
	if err != nil {
		report.Errors = append(report.Errors, "os: "+err.Error())
	}
	report.OSLabel = label
	report.OSSupported = IsOSSupported(label)

	report.Resolution = c.resolution(&report)
	report.AppStatus = c.appStatus()

	if shotPath != "" && c.shots != nil {
		if path, err := c.shots.Capture(shotPath); err != nil {
			report.Errors = append(report.Errors, "screenshot: "+err.Error())
		} else {
			report.Screenshot = path
		}
	}

	ready := report.OSSupported && report.AppStatus == domain.AppRunning && report.Resolution != nil

	c.logger.Info("env check",
		zap.Bool("ready", ready),
		zap.String("os", report.OSLabel),
		zap.String("app_status", string(report.AppStatus)))
	return ready, report
}

// IsOSSupported matches label against SupportedOSPrefixes.
func IsOSSupported(label string) bool {
	label = strings.ToLower(label)
	for _, p := range SupportedOSPrefixes {
		if strings.HasPrefix(label, p) {
			return true
		}
	}
	return false
}

func (c *EnvChecker) resolution(report *EnvReport) *domain.Size {
	if c.screens == nil {
		return nil
	}
	size, err := c.screens.PhysicalSize()
	if err != nil || size.IsZero() {
		size, err = c.screens.LogicalSize()
	}
	if err != nil {
		report.Errors = append(report.Errors, "screen: "+err.Error())
		return nil
	}
	if size.IsZero() {
		return nil
	}
	return &size
}

func (c *EnvChecker) appStatus() domain.AppStatus {
	installed := false
	for _, p := range c.policy.InstallPaths {
		expanded := c.fs.ExpandPath(p)
		if expanded != "" && c.fs.Exists(expanded) {
			installed = true
			break
		}
	}
	if !installed {
		return domain.AppNotInstalled
	}

	pids, err := c.procs.FindByNames(c.policy.ProcessNames...)
	if err != nil {
		c.logger.Debug("process lookup failed", zap.Error(err))
	}
	if len(pids) > 0 {
		return domain.AppRunning
	}
	return domain.AppNotRunning
}
