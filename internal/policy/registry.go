package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

// Registry maps app IDs to their policies.
type Registry struct {
	policies map[string]AppPolicy
}

// NewRegistry creates a registry holding policies.
func NewRegistry(policies ...AppPolicy) *Registry {
	r := &Registry{policies: make(map[string]AppPolicy, len(policies))}
	for _, p := range policies {
		r.Register(p)
	}
	return r
}

// Register adds p, replacing any policy with the same ID.
func (r *Registry) Register(p AppPolicy) {
	r.policies[p.ID()] = p
}

// Policy returns the domain policy registered under id.
func (r *Registry) Policy(id string) (domain.Policy, error) {
	p, ok := r.policies[id]
	if !ok {
		ids := make([]string, 0, len(r.policies))
		for known := range r.policies {
			ids = append(ids, known)
		}
		sort.Strings(ids)
		return domain.Policy{}, fmt.Errorf("unknown app %q (known: %s)", id, strings.Join(ids, ", "))
	}
	return ToPolicy(p), nil
}
