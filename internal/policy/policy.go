// Package policy holds the profiles of the applications this service can drive.
// Each app (WeCom) has its own policy naming its processes and window titles.
package policy

import (
	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// AppPolicy defines the strategy interface for identifying an application.
type AppPolicy interface {
	// ID returns unique identifier (e.g., "wecom").
	ID() string

	// Name returns human-readable name for display.
	Name() string

	// ProcessNames returns executable names owning the app's windows.
	// Names are matched case-insensitively.
	ProcessNames() []string

	// TitleSubstrings returns substrings identifying the main window title.
	// Matched case-insensitively, only while one of ProcessNames is running.
	TitleSubstrings() []string

	// InstallPaths returns directories whose existence means "installed".
	// Supports ~, %VAR% and $VAR expansion.
	InstallPaths() []string
}

// ToPolicy converts an AppPolicy to a domain.Policy entity.
func ToPolicy(ap AppPolicy) domain.Policy {
	return domain.Policy{
		ID:              ap.ID(),
		Name:            ap.Name(),
		ProcessNames:    ap.ProcessNames(),
		TitleSubstrings: ap.TitleSubstrings(),
		InstallPaths:    ap.InstallPaths(),
	}
}
