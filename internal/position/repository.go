// Package position locates UI controls on screen by template matching
// against a resolution-indexed template set.
package position

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// Tracked targets.
const (
	TargetInputBox   = "input_box"
	TargetSendButton = "send_button"
)

// DefaultTargetMapping maps target names and aliases to template files.
var DefaultTargetMapping = map[string]string{
	"消息输入框":             "input_box.png",
	"消息发送按钮":            "send_button.png",
	"input box":         "input_box.png",
	"message input box": "input_box.png",
	"send button":       "send_button.png",
}

// Repository resolves template files. Templates live under
// <root>/<WIDTH>x<HEIGHT>/<name>.png; WIDTH-HEIGHT folders are accepted too.
type Repository struct {
	root    string
	mapping map[string]string
}

// NewRepository creates a template repository. A nil mapping uses
// DefaultTargetMapping.
func NewRepository(root string, mapping map[string]string) *Repository {
	if mapping == nil {
		mapping = DefaultTargetMapping
	}
	return &Repository{root: root, mapping: mapping}
}

// Root returns the template root directory.
func (r *Repository) Root() string {
	return r.root
}

// FileName resolves a target to its template file name.
func (r *Repository) FileName(target string) (string, bool) {
	if name, ok := r.mapping[target]; ok {
		return name, true
	}
	normalized := strings.ReplaceAll(strings.TrimSpace(target), " ", "_")
	if normalized == "" {
		return "", false
	}
	return normalized + ".png", true
}

// CanonicalTarget returns the name targets are keyed by: the template file
// name without extension, so aliases of one control share policy and cache.
func (r *Repository) CanonicalTarget(target string) string {
	name, ok := r.FileName(target)
	if !ok {
		return target
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// TemplatePath returns the template for target in the resolution folder
// nearest to resolution. It reports false when no folder or file exists.
func (r *Repository) TemplatePath(target string, resolution domain.Size) (string, bool) {
	name, ok := r.FileName(target)
	if !ok {
		return "", false
	}

	folder, ok := r.pickFolder(resolution)
	if !ok {
		return "", false
	}

	path := filepath.Join(r.root, folder, name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

type resolutionFolder struct {
	name string
	size domain.Size
}

// folders lists parsable resolution folders in lexical order.
func (r *Repository) folders() []resolutionFolder {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil
	}

	var out []resolutionFolder
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if size, ok := ParseResolution(e.Name()); ok {
			out = append(out, resolutionFolder{name: e.Name(), size: size})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// pickFolder minimizes Manhattan distance; ties go to the lexically first
// folder. An unknown resolution picks the first folder.
func (r *Repository) pickFolder(resolution domain.Size) (string, bool) {
	folders := r.folders()
	if len(folders) == 0 {
		return "", false
	}
	if resolution.IsZero() {
		return folders[0].name, true
	}

	best, bestDist := "", -1
	for _, f := range folders {
		d := abs(f.size.Width-resolution.Width) + abs(f.size.Height-resolution.Height)
		if bestDist < 0 || d < bestDist {
			best, bestDist = f.name, d
		}
	}
	return best, true
}

// Resolutions lists the available template resolutions.
func (r *Repository) Resolutions() []domain.Size {
	folders := r.folders()
	out := make([]domain.Size, 0, len(folders))
	for _, f := range folders {
		out = append(out, f.size)
	}
	return out
}

// ParseResolution parses folder names like 1920x1080 or 1920-1080.
func ParseResolution(name string) (domain.Size, bool) {
	sep := strings.IndexAny(strings.ToLower(name), "x-")
	if sep <= 0 {
		return domain.Size{}, false
	}
	w, err := strconv.Atoi(name[:sep])
	if err != nil {
		return domain.Size{}, false
	}
	h, err := strconv.Atoi(name[sep+1:])
	if err != nil {
		return domain.Size{}, false
	}
	size := domain.Size{Width: w, Height: h}
	if size.IsZero() {
		return domain.Size{}, false
	}
	return size, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
