package window

import (
	"errors"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// FindFunc resolves the current best window handle.
type FindFunc func() (domain.WindowHandle, []string, error)

// RetryInvalidHandle runs op on h. If op reports domain.ErrInvalidHandle the
// window is resolved again with find and op is retried exactly once.
// It returns the handle the final attempt used.
func RetryInvalidHandle(find FindFunc, h domain.WindowHandle, op func(domain.WindowHandle) error) (domain.WindowHandle, error) {
	err := op(h)
	if err == nil || !errors.Is(err, domain.ErrInvalidHandle) {
		return h, err
	}

	fresh, _, findErr := find()
	if findErr != nil {
		return h, errors.Join(err, findErr)
	}
	return fresh, op(fresh)
}
