package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestContext() (*RuntimeContext, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	return New(Options{Now: clock.Now}), clock
}

func TestNew_Empty(t *testing.T) {
	ctx, clock := newTestContext()
	snap := ctx.Snapshot()

	assert.Nil(t, snap.PhysicalScreen)
	assert.Nil(t, snap.LogicalScreen)
	assert.Nil(t, snap.InputCenter)
	assert.Nil(t, snap.SendButtonCenter)
	assert.Equal(t, clock.Now(), snap.Meta.CreatedAt)
	assert.True(t, snap.Meta.UpdatedAt.IsZero())
}

func TestUpdatePositions_Partial(t *testing.T) {
	ctx, clock := newTestContext()
	located := clock.Now()

	ctx.UpdatePositions(PositionUpdate{
		InputCenter:      &domain.Point{X: 10, Y: 20},
		SendButtonCenter: &domain.Point{X: 30, Y: 40},
		LocatedAt:        located,
		Screenshot:       "a.png",
	})

	clock.Advance(time.Second)
	ctx.UpdatePositions(PositionUpdate{SendButtonCenter: &domain.Point{X: 31, Y: 41}})

	snap := ctx.Snapshot()
	assert.Equal(t, &domain.Point{X: 10, Y: 20}, snap.InputCenter)
	assert.Equal(t, &domain.Point{X: 31, Y: 41}, snap.SendButtonCenter)
	assert.Equal(t, located, snap.Meta.LastLocateAt)
	assert.Equal(t, "a.png", snap.Meta.LastLocateScreenshot)
	assert.Equal(t, clock.Now(), snap.Meta.UpdatedAt)
}

func TestUpdateScreenSizes_Partial(t *testing.T) {
	ctx, _ := newTestContext()

	ctx.UpdateScreenSizes(&domain.Size{Width: 3840, Height: 2160}, &domain.Size{Width: 1920, Height: 1080})
	ctx.UpdateScreenSizes(nil, &domain.Size{Width: 2560, Height: 1440})

	snap := ctx.Snapshot()
	assert.Equal(t, &domain.Size{Width: 3840, Height: 2160}, snap.PhysicalScreen)
	assert.Equal(t, &domain.Size{Width: 2560, Height: 1440}, snap.LogicalScreen)
	assert.False(t, snap.Meta.UpdatedAt.IsZero())
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	ctx, _ := newTestContext()
	p := &domain.Point{X: 1, Y: 2}
	ctx.UpdatePositions(PositionUpdate{InputCenter: p})

	// Neither the caller's pointer nor a snapshot can reach shared state.
	p.X = 99
	snap := ctx.Snapshot()
	snap.InputCenter.Y = 99

	again := ctx.Snapshot()
	assert.Equal(t, &domain.Point{X: 1, Y: 2}, again.InputCenter)
}

func TestMarkers(t *testing.T) {
	ctx, clock := newTestContext()
	tick := clock.Now().Add(-time.Minute)

	ctx.MarkGuardTick(tick)
	ctx.MarkMaxTop(time.Time{})
	ctx.SetLastError("locate_failed")

	snap := ctx.Snapshot()
	assert.Equal(t, tick, snap.Meta.LastGuardTickAt)
	assert.Equal(t, clock.Now(), snap.Meta.LastMaxTopAt)
	assert.Equal(t, "locate_failed", snap.Meta.LastError)

	ctx.SetLastError("")
	assert.Empty(t, ctx.Snapshot().Meta.LastError)
}

func TestPositionsFresh(t *testing.T) {
	ctx, clock := newTestContext()
	now := clock.Now()
	maxAge := 15 * time.Second

	assert.False(t, ctx.PositionsFresh(now, maxAge), "empty cache")

	ctx.UpdatePositions(PositionUpdate{InputCenter: &domain.Point{X: 1, Y: 1}, LocatedAt: now})
	assert.False(t, ctx.PositionsFresh(now, maxAge), "send button missing")

	ctx.UpdatePositions(PositionUpdate{SendButtonCenter: &domain.Point{X: 2, Y: 2}})
	assert.True(t, ctx.PositionsFresh(now.Add(10*time.Second), maxAge))
	assert.False(t, ctx.PositionsFresh(now.Add(15*time.Second), maxAge))
	assert.False(t, ctx.PositionsFresh(now.Add(16*time.Second), maxAge))
}

func TestConcurrentAccess(t *testing.T) {
	ctx := New(Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				ctx.UpdatePositions(PositionUpdate{
					InputCenter:      &domain.Point{X: i, Y: j},
					SendButtonCenter: &domain.Point{X: i, Y: j},
					LocatedAt:        time.Now(),
				})
				ctx.UpdateScreenSizes(&domain.Size{Width: i + 1, Height: j + 1}, nil)
				snap := ctx.Snapshot()
				// Both centers are always written together.
				assert.Equal(t, *snap.InputCenter, *snap.SendButtonCenter)
			}
		}(i)
	}
	wg.Wait()
}
