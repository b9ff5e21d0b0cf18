// Package state holds the shared runtime context: last known screen sizes,
// cached control centers and operational metadata.
package state

import (
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// Meta is operational metadata. Zero times mean "never".
type Meta struct {
	CreatedAt            time.Time `yaml:"created_at"`
	UpdatedAt            time.Time `yaml:"updated_at"`
	LastGuardTickAt      time.Time `yaml:"last_guard_tick_at"`
	LastLocateAt         time.Time `yaml:"last_locate_at"`
	LastMaxTopAt         time.Time `yaml:"last_max_top_at"`
	LastError            string    `yaml:"last_error"`
	LastLocateScreenshot string    `yaml:"last_locate_screenshot"`
	LastLocateAnnotated  string    `yaml:"last_locate_annotated"`
}

// Snapshot is a consistent copy of the context. It shares no memory with
// the context it was taken from.
type Snapshot struct {
	PhysicalScreen   *domain.Size  `yaml:"physical_screen"`
	LogicalScreen    *domain.Size  `yaml:"logical_screen"`
	InputCenter      *domain.Point `yaml:"input_center"`
	SendButtonCenter *domain.Point `yaml:"send_button_center"`
	Meta             Meta          `yaml:"meta"`
}

// PositionsFresh reports whether both centers are cached and were located
// less than maxAge before now.
func (s Snapshot) PositionsFresh(now time.Time, maxAge time.Duration) bool {
	if s.InputCenter == nil || s.SendButtonCenter == nil || s.Meta.LastLocateAt.IsZero() {
		return false
	}
	return now.Sub(s.Meta.LastLocateAt) < maxAge
}

// PositionUpdate is a partial update; nil and zero fields are left alone.
type PositionUpdate struct {
	InputCenter      *domain.Point
	SendButtonCenter *domain.Point
	LocatedAt        time.Time
	Screenshot       string
	Annotated        string
}

// Options configures a RuntimeContext.
type Options struct {
	Now func() time.Time // Clock; nil uses time.Now
}

// RuntimeContext is the process-wide cache shared by the guard and request
// handlers. All access goes through one mutex.
type RuntimeContext struct {
	mu  sync.Mutex
	now func() time.Time

	physical   *domain.Size
	logical    *domain.Size
	input      *domain.Point
	sendButton *domain.Point
	meta       Meta
}

// New creates an empty runtime context.
func New(opts Options) *RuntimeContext {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &RuntimeContext{
		now:  now,
		meta: Meta{CreatedAt: now()},
	}
}

// Snapshot returns a deep copy taken under the lock.
func (c *RuntimeContext) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		PhysicalScreen:   copySize(c.physical),
		LogicalScreen:    copySize(c.logical),
		InputCenter:      copyPoint(c.input),
		SendButtonCenter: copyPoint(c.sendButton),
		Meta:             c.meta,
	}
}

// UpdateScreenSizes overwrites the sizes that are non-nil.
func (c *RuntimeContext) UpdateScreenSizes(physical, logical *domain.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if physical != nil {
		c.physical = copySize(physical)
	}
	if logical != nil {
		c.logical = copySize(logical)
	}
	c.meta.UpdatedAt = c.now()
}

// UpdatePositions applies a partial position update.
func (c *RuntimeContext) UpdatePositions(u PositionUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u.InputCenter != nil {
		c.input = copyPoint(u.InputCenter)
	}
	if u.SendButtonCenter != nil {
		c.sendButton = copyPoint(u.SendButtonCenter)
	}
	if !u.LocatedAt.IsZero() {
		c.meta.LastLocateAt = u.LocatedAt
	}
	if u.Screenshot != "" {
		c.meta.LastLocateScreenshot = u.Screenshot
	}
	if u.Annotated != "" {
		c.meta.LastLocateAnnotated = u.Annotated
	}
	c.meta.UpdatedAt = c.now()
}

// MarkGuardTick records the start of a guard tick; a zero at uses the clock.
func (c *RuntimeContext) MarkGuardTick(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.meta.LastGuardTickAt = c.orNow(at)
	c.meta.UpdatedAt = c.now()
}

// MarkMaxTop records a successful maximize or topmost placement.
func (c *RuntimeContext) MarkMaxTop(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.meta.LastMaxTopAt = c.orNow(at)
	c.meta.UpdatedAt = c.now()
}

// SetLastError records msg; an empty msg clears the error.
func (c *RuntimeContext) SetLastError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.meta.LastError = msg
	c.meta.UpdatedAt = c.now()
}

// PositionsFresh reports whether the cached centers can be used at now.
func (c *RuntimeContext) PositionsFresh(now time.Time, maxAge time.Duration) bool {
	return c.Snapshot().PositionsFresh(now, maxAge)
}

func (c *RuntimeContext) orNow(t time.Time) time.Time {
	if t.IsZero() {
		return c.now()
	}
	return t
}

func copySize(s *domain.Size) *domain.Size {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyPoint(p *domain.Point) *domain.Point {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
