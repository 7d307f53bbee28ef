package entitlement_test

import (
	"testing"
	"time"

	"github.com/xraph/subgate/entitlement"
)

const month = 2_592_000 * time.Second // 30 days

func TestActivate(t *testing.T) {
	now := time.Unix(1000, 0)
	up := entitlement.Activate("erd1alice", "monthly", now, month)

	if up.User != "erd1alice" || up.PlanID != "monthly" {
		t.Errorf("unexpected identity: %s / %s", up.User, up.PlanID)
	}
	if !up.ExpiresAt.Equal(now.Add(month)) {
		t.Errorf("got expiry %v, want %v", up.ExpiresAt, now.Add(month))
	}
	if !up.FirstSubscribed.Equal(now) || !up.LastSubscribed.Equal(now) {
		t.Errorf("subscription timestamps not anchored to activation time")
	}
	if !up.Active(now) {
		t.Error("freshly activated window should be active")
	}
}

func TestExtendStacksWhileActive(t *testing.T) {
	up := entitlement.Activate("erd1alice", "monthly", time.Unix(1000, 0), month)

	// Renewal one second into the window: the new expiry is the old
	// expiry plus a full validity, so no paid time is lost.
	tr := up.Extend(time.Unix(2000, 0), month)
	if tr != entitlement.Stacked {
		t.Errorf("got transition %q, want %q", tr, entitlement.Stacked)
	}
	if want := time.Unix(5_185_000, 0); !up.ExpiresAt.Equal(want) {
		t.Errorf("got expiry %v, want %v", up.ExpiresAt, want)
	}
	if !up.LastSubscribed.Equal(time.Unix(2000, 0)) {
		t.Errorf("LastSubscribed not updated: %v", up.LastSubscribed)
	}
	if !up.FirstSubscribed.Equal(time.Unix(1000, 0)) {
		t.Errorf("FirstSubscribed must not change: %v", up.FirstSubscribed)
	}
}

func TestExtendResetsAfterLapse(t *testing.T) {
	up := entitlement.Activate("erd1alice", "monthly", time.Unix(1000, 0), month)
	// expires at 2_593_000; pay again well past that.
	now := time.Unix(3_000_000, 0)

	tr := up.Extend(now, month)
	if tr != entitlement.Reset {
		t.Errorf("got transition %q, want %q", tr, entitlement.Reset)
	}
	if want := time.Unix(5_592_000, 0); !up.ExpiresAt.Equal(want) {
		t.Errorf("got expiry %v, want %v", up.ExpiresAt, want)
	}
	if !up.FirstSubscribed.Equal(time.Unix(1000, 0)) {
		t.Errorf("FirstSubscribed must not change: %v", up.FirstSubscribed)
	}
}

func TestExtendAtExactExpiry(t *testing.T) {
	start := time.Unix(1000, 0)
	up := entitlement.Activate("erd1alice", "monthly", start, month)
	expiry := up.ExpiresAt

	// A payment at the exact expiry instant finds the window closed:
	// Active is a strict After, so the transition is a reset.
	tr := up.Extend(expiry, month)
	if tr != entitlement.Reset {
		t.Errorf("got transition %q, want %q", tr, entitlement.Reset)
	}
	if !up.ExpiresAt.Equal(expiry.Add(month)) {
		t.Errorf("got expiry %v, want %v", up.ExpiresAt, expiry.Add(month))
	}
}

func TestActive(t *testing.T) {
	up := entitlement.Activate("erd1alice", "monthly", time.Unix(1000, 0), month)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "just after activation", at: time.Unix(1001, 0), want: true},
		{name: "one second before expiry", at: time.Unix(2_592_999, 0), want: true},
		{name: "at expiry", at: time.Unix(2_593_000, 0), want: false},
		{name: "after expiry", at: time.Unix(3_000_000, 0), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := up.Active(tt.at); got != tt.want {
				t.Errorf("Active(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestRepeatedStacking(t *testing.T) {
	start := time.Unix(1000, 0)
	up := entitlement.Activate("erd1alice", "monthly", start, month)

	// n timely renewals leave the expiry at start + (n+1) validities.
	for i := 1; i <= 3; i++ {
		if tr := up.Extend(start.Add(time.Duration(i)*time.Second), month); tr != entitlement.Stacked {
			t.Fatalf("renewal %d: got transition %q, want %q", i, tr, entitlement.Stacked)
		}
	}
	if want := start.Add(4 * month); !up.ExpiresAt.Equal(want) {
		t.Errorf("got expiry %v, want %v", up.ExpiresAt, want)
	}
}
