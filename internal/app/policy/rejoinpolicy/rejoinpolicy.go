// internal/app/policy/rejoinpolicy/rejoinpolicy.go

// Package rejoinpolicy decides whether a withdrawn phone identity may
// register again. The decision is pure: it reads a RejoinRestriction and
// the clock, writes nothing, and the restriction record itself is never
// updated or cleaned up — a stale entry simply stops denying once the
// window passes.
package rejoinpolicy

import (
	"time"

	"github.com/moimlabs/moim/internal/domain/models"
)

// DefaultWindow is the cool-down before a withdrawn identity may
// re-register.
const DefaultWindow = 30 * 24 * time.Hour

// Decision is the outcome of an eligibility check.
type Decision struct {
	Allowed bool
	// RemainingDays is the whole days left in the cool-down (ceiling), set
	// only when Allowed is false.
	RemainingDays int
}

// Check evaluates a restriction against now. A nil restriction (no record
// for the phone) always allows.
func Check(r *models.RejoinRestriction, now time.Time, window time.Duration) Decision {
	if r == nil {
		return Decision{Allowed: true}
	}
	elapsed := now.Sub(r.WithdrawnAt)
	if elapsed >= window {
		return Decision{Allowed: true}
	}
	remaining := window - elapsed
	days := int((remaining + 24*time.Hour - 1) / (24 * time.Hour))
	return Decision{Allowed: false, RemainingDays: days}
}
