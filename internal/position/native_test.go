package position

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/wecom_guard/test/fixtures"
)

func TestMatchGray_FindsTemplate(t *testing.T) {
	tmpl := fixtures.Pattern(12, 8, 1)
	shot := fixtures.NewFakeDesktop(80, 60).Paste(tmpl, 37, 21)

	bbox, score, err := MatchGray(NewGrayImage(shot.Image), NewGrayImage(tmpl), nil, 0.8)
	require.NoError(t, err)
	require.NotNil(t, bbox)
	assert.InDelta(t, 1.0, score, 1e-6)
	assert.Equal(t, 37, bbox.X)
	assert.Equal(t, 21, bbox.Y)
	assert.Equal(t, 12, bbox.Width)
	assert.Equal(t, 8, bbox.Height)
}

func TestMatchGray_BelowThresholdKeepsScore(t *testing.T) {
	tmpl := fixtures.Pattern(10, 10, 2)
	shot := fixtures.NewFakeDesktop(60, 40).Paste(fixtures.Pattern(60, 40, 3), 0, 0)
	g, tg := NewGrayImage(shot.Image), NewGrayImage(tmpl)

	_, raw, err := MatchGray(g, tg, nil, -2)
	require.NoError(t, err)
	require.Less(t, raw, 0.9)

	bbox, score, err := MatchGray(g, tg, nil, raw+0.05)
	require.NoError(t, err)
	assert.Nil(t, bbox)
	assert.Equal(t, raw, score)
}

func TestMatchGray_RegionTranslatesCoordinates(t *testing.T) {
	tmpl := fixtures.Pattern(8, 8, 4)
	shot := fixtures.NewFakeDesktop(100, 100).
		Paste(tmpl, 5, 5).
		Paste(tmpl, 70, 80)
	g := NewGrayImage(shot.Image)

	region := BottomRightQuadrant(image.Rect(0, 0, 100, 100))
	bbox, _, err := MatchGray(g, NewGrayImage(tmpl), &region, 0.9)
	require.NoError(t, err)
	require.NotNil(t, bbox)
	assert.Equal(t, 70, bbox.X)
	assert.Equal(t, 80, bbox.Y)
}

func TestMatchGray_TemplateLargerThanRegion(t *testing.T) {
	tmpl := fixtures.Pattern(30, 30, 5)
	shot := fixtures.NewFakeDesktop(100, 100)

	region := image.Rect(90, 90, 100, 100)
	_, _, err := MatchGray(NewGrayImage(shot.Image), NewGrayImage(tmpl), &region, 0.8)
	assert.Error(t, err)
}

func TestMatchGray_FlatTemplateNeverMatches(t *testing.T) {
	flat := fixtures.NewFakeDesktop(6, 6)
	shot := fixtures.NewFakeDesktop(40, 40)

	bbox, score, err := MatchGray(NewGrayImage(shot.Image), NewGrayImage(flat.Image), nil, 0.5)
	require.NoError(t, err)
	assert.Nil(t, bbox)
	assert.Equal(t, 0.0, score)
}

func TestNativeMatcher_Files(t *testing.T) {
	dir := t.TempDir()
	tmpl := fixtures.Pattern(10, 6, 6)
	shotPath := filepath.Join(dir, "shot.png")
	tmplPath := filepath.Join(dir, "tmpl.png")
	require.NoError(t, fixtures.NewFakeDesktop(50, 40).Paste(tmpl, 12, 30).Save(shotPath))
	require.NoError(t, fixtures.WritePNG(tmplPath, tmpl))

	m := NewNativeMatcher(0)
	bbox, err := m.Match(shotPath, tmplPath)
	require.NoError(t, err)
	require.NotNil(t, bbox)
	assert.Equal(t, 12, bbox.X)
	assert.Equal(t, 30, bbox.Y)

	_, err = m.Match(filepath.Join(dir, "missing.png"), tmplPath)
	assert.Error(t, err)
}
