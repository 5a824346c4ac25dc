// Package subscription provides the domain contract between the rate
// limiter and the external subscription provider.
package subscription

import (
	"sort"
	"time"
)

// NoEntitlement is the reserved name carried by users with no active
// subscription; it matches the rate-limit fallback plan.
const NoEntitlement = "none"

// Snapshot is the provider's view of one user at lookup time: the set of
// active entitlement names and the earliest purchase date among them. The
// purchase date anchors the user's monthly rate-limit window.
type Snapshot struct {
	entitlements []string
	startedAt    *time.Time
}

// NewSnapshot builds a snapshot from active entitlement names and the
// earliest purchase date. An empty set is normalized to {"none"} with no
// anchor; duplicates are dropped and names are sorted for determinism.
func NewSnapshot(entitlements []string, startedAt *time.Time) *Snapshot {
	unique := make(map[string]struct{}, len(entitlements))
	for _, name := range entitlements {
		if name != "" && name != NoEntitlement {
			unique[name] = struct{}{}
		}
	}

	if len(unique) == 0 {
		return NoneSnapshot()
	}

	names := make([]string, 0, len(unique))
	for name := range unique {
		names = append(names, name)
	}
	sort.Strings(names)

	var anchor *time.Time
	if startedAt != nil {
		utc := startedAt.UTC()
		anchor = &utc
	}

	return &Snapshot{entitlements: names, startedAt: anchor}
}

// NoneSnapshot returns the snapshot for a user with no active entitlement.
// It is also the middleware's substitute when the provider is unreachable.
func NoneSnapshot() *Snapshot {
	return &Snapshot{entitlements: []string{NoEntitlement}}
}

// Entitlements returns the active entitlement names.
func (s *Snapshot) Entitlements() []string {
	return s.entitlements
}

// StartedAt returns the earliest purchase date among active entitlements,
// or nil when the user holds none.
func (s *Snapshot) StartedAt() *time.Time {
	return s.startedAt
}

// IsNone reports whether the user holds no active entitlement.
func (s *Snapshot) IsNone() bool {
	return len(s.entitlements) == 1 && s.entitlements[0] == NoEntitlement
}
