// Package entitlement holds the per-(user, plan) access window state and
// the transition rule applied on every verified payment.
package entitlement

import (
	"time"

	"github.com/xraph/subgate/types"
)

// Transition names the state change a verified payment produced.
type Transition string

const (
	// Activated is the first payment for a (user, plan) pair.
	Activated Transition = "activated"
	// Stacked extends an unexpired window by the full validity, so timely
	// renewals accumulate duration losslessly.
	Stacked Transition = "stacked"
	// Reset restarts a lapsed window from the payment time, discarding
	// whatever unused duration the stale expiry carried. This bounds how
	// far an expiry can run ahead of real time.
	Reset Transition = "reset"
)

// UserPlan is one user's access window for one plan. Records are created
// on the first verified payment and never deleted; a lapsed record stays
// in storage as subscription history.
type UserPlan struct {
	types.Entity
	User            types.Address `json:"user"`
	PlanID          string        `json:"plan_id"`
	ExpiresAt       time.Time     `json:"expires_at"`
	FirstSubscribed time.Time     `json:"first_subscribed"`
	LastSubscribed  time.Time     `json:"last_subscribed"`
}

// Active reports whether the window covers the instant now.
func (up *UserPlan) Active(now time.Time) bool {
	return up.ExpiresAt.After(now)
}

// Activate creates the window for a first payment at time now:
// the window opens immediately and runs for validity.
func Activate(user types.Address, planID string, now time.Time, validity time.Duration) *UserPlan {
	return &UserPlan{
		Entity:          types.EntityAt(now),
		User:            user,
		PlanID:          planID,
		ExpiresAt:       now.Add(validity),
		FirstSubscribed: now,
		LastSubscribed:  now,
	}
}

// Extend applies a renewal payment at time now and reports which
// transition occurred. An unexpired window stacks: the new expiry is the
// old expiry plus validity. An expired window resets: the new expiry is
// now plus validity. FirstSubscribed is immutable either way.
func (up *UserPlan) Extend(now time.Time, validity time.Duration) Transition {
	t := Stacked
	if up.ExpiresAt.After(now) {
		up.ExpiresAt = up.ExpiresAt.Add(validity)
	} else {
		up.ExpiresAt = now.Add(validity)
		t = Reset
	}

	up.LastSubscribed = now
	up.TouchAt(now)
	return t
}
