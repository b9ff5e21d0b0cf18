package position

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
	"github.com/eliteGoblin/focusd/wecom_guard/test/fixtures"
)

func newTree(t *testing.T, folders ...string) (*fixtures.FakeTemplateTree, *Repository) {
	t.Helper()
	root := t.TempDir()
	tree := fixtures.NewFakeTemplateTree(root)
	tmpl := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for _, f := range folders {
		require.NoError(t, tree.AddTemplate(f, "input_box.png", tmpl))
		require.NoError(t, tree.AddTemplate(f, "send_button.png", tmpl))
	}
	return tree, NewRepository(root, nil)
}

func TestTemplatePath_NearestResolution(t *testing.T) {
	_, repo := newTree(t, "1920x1080", "1280x720")

	path, ok := repo.TemplatePath("input_box", domain.Size{Width: 1366, Height: 768})
	require.True(t, ok)
	assert.Equal(t, "1280x720", filepath.Base(filepath.Dir(path)))

	path, ok = repo.TemplatePath("input_box", domain.Size{Width: 1920, Height: 1200})
	require.True(t, ok)
	assert.Equal(t, "1920x1080", filepath.Base(filepath.Dir(path)))
}

func TestTemplatePath_TieBrokenLexically(t *testing.T) {
	_, repo := newTree(t, "1000x1000", "1200x1000")

	// Both folders are 100 away.
	path, ok := repo.TemplatePath("input_box", domain.Size{Width: 1100, Height: 1000})
	require.True(t, ok)
	assert.Equal(t, "1000x1000", filepath.Base(filepath.Dir(path)))
}

func TestTemplatePath_DashFolders(t *testing.T) {
	_, repo := newTree(t, "2560-1440", "1920-1080")

	path, ok := repo.TemplatePath("send_button", domain.Size{Width: 2560, Height: 1600})
	require.True(t, ok)
	assert.Equal(t, "2560-1440", filepath.Base(filepath.Dir(path)))
}

func TestTemplatePath_UnknownResolutionPicksFirst(t *testing.T) {
	_, repo := newTree(t, "2560x1440", "1920x1080")

	path, ok := repo.TemplatePath("input_box", domain.Size{})
	require.True(t, ok)
	assert.Equal(t, "1920x1080", filepath.Base(filepath.Dir(path)))
}

func TestTemplatePath_Aliases(t *testing.T) {
	_, repo := newTree(t, "1920x1080")

	for _, target := range []string{"消息输入框", "input box", "input_box", " input box "} {
		path, ok := repo.TemplatePath(target, domain.Size{Width: 1920, Height: 1080})
		require.True(t, ok, target)
		assert.Equal(t, "input_box.png", filepath.Base(path), target)
	}

	path, ok := repo.TemplatePath("消息发送按钮", domain.Size{Width: 1920, Height: 1080})
	require.True(t, ok)
	assert.Equal(t, "send_button.png", filepath.Base(path))
}

func TestTemplatePath_NotFound(t *testing.T) {
	tree, repo := newTree(t, "1920x1080")
	size := domain.Size{Width: 1920, Height: 1080}

	_, ok := repo.TemplatePath("emoji_button", size)
	assert.False(t, ok)

	_, ok = repo.TemplatePath("   ", size)
	assert.False(t, ok)

	// Nearest folder lacks the file; other folders are not consulted.
	require.NoError(t, tree.AddFolder("1920x1200"))
	_, ok = repo.TemplatePath("input_box", domain.Size{Width: 1920, Height: 1200})
	assert.False(t, ok)
}

func TestTemplatePath_NoFolders(t *testing.T) {
	repo := NewRepository(filepath.Join(t.TempDir(), "missing"), nil)
	_, ok := repo.TemplatePath("input_box", domain.Size{Width: 1920, Height: 1080})
	assert.False(t, ok)
	assert.Empty(t, repo.Resolutions())
}

func TestResolutions(t *testing.T) {
	tree, repo := newTree(t, "1920x1080", "1280-720")
	require.NoError(t, tree.AddFolder("notes"))

	assert.Equal(t, []domain.Size{
		{Width: 1280, Height: 720},
		{Width: 1920, Height: 1080},
	}, repo.Resolutions())
}

func TestCanonicalTarget(t *testing.T) {
	repo := NewRepository("", nil)
	assert.Equal(t, TargetInputBox, repo.CanonicalTarget("消息输入框"))
	assert.Equal(t, TargetSendButton, repo.CanonicalTarget("send button"))
	assert.Equal(t, "emoji_button", repo.CanonicalTarget("emoji button"))
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Size
		ok   bool
	}{
		{"1920x1080", domain.Size{Width: 1920, Height: 1080}, true},
		{"1920X1080", domain.Size{Width: 1920, Height: 1080}, true},
		{"1366-768", domain.Size{Width: 1366, Height: 768}, true},
		{"x1080", domain.Size{}, false},
		{"1920x", domain.Size{}, false},
		{"0x0", domain.Size{}, false},
		{"templates", domain.Size{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseResolution(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
