package infra

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

var serverYear = regexp.MustCompile(`20\d\d`)

// HostInfoImpl implements domain.HostInfo using gopsutil.
type HostInfoImpl struct{}

// NewHostInfo creates a host info reader.
func NewHostInfo() domain.HostInfo {
	return &HostInfoImpl{}
}

// OSLabel returns win10, win11, winserver<year> on Windows and the plain
// OS name elsewhere.
func (h *HostInfoImpl) OSLabel() (string, error) {
	info, err := host.Info()
	if err != nil {
		return "", fmt.Errorf("host info: %w", err)
	}
	return OSLabelFrom(info.OS, info.Platform, info.PlatformVersion), nil
}

// OSLabelFrom derives the label from gopsutil host fields.
// Platform looks like "Microsoft Windows 11 Pro"; PlatformVersion like
// "10.0.22631 Build 22631".
func OSLabelFrom(osName, platform, version string) string {
	osName = strings.ToLower(osName)
	if osName != "windows" {
		return osName
	}

	p := strings.ToLower(platform)
	switch {
	case strings.Contains(p, "server"):
		if y := serverYear.FindString(p); y != "" {
			return "winserver" + y
		}
		return "winserver"
	case strings.Contains(p, "windows 11"):
		return "win11"
	case strings.Contains(p, "windows 10"):
		return "win10"
	}

	// Windows 11 still reports major version 10; fall back to the build number.
	if build := buildNumber(version); build >= 22000 {
		return "win11"
	} else if build > 0 {
		return "win10"
	}
	return "windows"
}

func buildNumber(version string) int {
	parts := strings.Split(strings.Fields(version + " ")[0], ".")
	if len(parts) < 3 {
		return 0
	}
	n := 0
	for _, r := range parts[2] {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// Ensure HostInfoImpl implements domain.HostInfo.
var _ domain.HostInfo = (*HostInfoImpl)(nil)
