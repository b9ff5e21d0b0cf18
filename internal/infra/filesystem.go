package infra

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

var percentVar = regexp.MustCompile(`%([^%]+)%`)

// FileSystemManagerImpl implements domain.FileSystemManager.
type FileSystemManagerImpl struct {
	homeDir string
	getenv  func(string) string
}

// NewFileSystemManager creates a new filesystem manager.
func NewFileSystemManager() domain.FileSystemManager {
	home, _ := os.UserHomeDir()
	return &FileSystemManagerImpl{homeDir: home, getenv: os.Getenv}
}

// NewFileSystemManagerWithHome creates a filesystem manager with custom home (for testing).
func NewFileSystemManagerWithHome(home string, getenv func(string) string) domain.FileSystemManager {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &FileSystemManagerImpl{homeDir: home, getenv: getenv}
}

// Exists checks if a path exists.
func (fm *FileSystemManagerImpl) Exists(path string) bool {
	expanded := fm.ExpandPath(path)
	if expanded == "" {
		return false
	}
	_, err := os.Stat(expanded)
	return err == nil
}

// ExpandPath expands ~, %VAR% and $VAR. A path referencing an unset
// %VAR% expands to "" so it never resolves relative to the working dir.
func (fm *FileSystemManagerImpl) ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		path = filepath.Join(fm.homeDir, path[2:])
	} else if path == "~" {
		return fm.homeDir
	}

	missing := false
	path = percentVar.ReplaceAllStringFunc(path, func(m string) string {
		v := fm.getenv(m[1 : len(m)-1])
		if v == "" {
			missing = true
		}
		return v
	})
	if missing {
		return ""
	}

	return os.Expand(path, fm.getenv)
}

// Ensure FileSystemManagerImpl implements domain.FileSystemManager.
var _ domain.FileSystemManager = (*FileSystemManagerImpl)(nil)
