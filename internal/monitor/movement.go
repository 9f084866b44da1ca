package monitor

import "time"

// MotionState classifies the subject's current movement situation.
type MotionState int

const (
	StateActive MotionState = iota
	StateImmobile
	StateFallen
)

func (s MotionState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateImmobile:
		return "immobile"
	case StateFallen:
		return "fallen"
	}
	return "unknown"
}

const (
	// motionFloorG is the small-motion floor: any acceleration magnitude
	// above it counts as movement.
	motionFloorG = 0.05

	// hrJitterBPM and spo2JitterPct are the vital-sign jitter tolerances.
	// A change beyond either since the previous sample counts as movement
	// even when the accelerometer reads still.
	hrJitterBPM   = 2
	spo2JitterPct = 1
)

// MovementTracker is the temporal state behind immobility inference: the
// timestamp of the last sample classified as "moving", plus the previous
// vitals needed for the jitter rule. One tracker per monitored subject.
type MovementTracker struct {
	lastMovement time.Time
	state        MotionState
	changedAt    time.Time
	prevHR       *int
	prevSpO2     *int
}

func NewMovementTracker() *MovementTracker {
	return &MovementTracker{state: StateActive}
}

// Observe feeds one sample into the tracker and returns the immobile
// duration as of now. hasMag reports whether all three acceleration
// components were present; fallen marks a fall-magnitude sample so the
// tracker can surface the Fallen state until movement resumes.
func (t *MovementTracker) Observe(now time.Time, magnitude float64, hasMag bool, hr, spo2 *int, fallen bool) time.Duration {
	moving := hasMag && magnitude > motionFloorG
	if !moving && hr != nil && t.prevHR != nil && abs(*hr-*t.prevHR) > hrJitterBPM {
		moving = true
	}
	if !moving && spo2 != nil && t.prevSpO2 != nil && abs(*spo2-*t.prevSpO2) > spo2JitterPct {
		moving = true
	}

	if hr != nil {
		t.prevHR = hr
	}
	if spo2 != nil {
		t.prevSpO2 = spo2
	}

	if moving {
		t.lastMovement = now
	} else if t.lastMovement.IsZero() {
		// First observation: clamp the immobile duration to zero.
		t.lastMovement = now
	}

	switch {
	case fallen:
		t.transition(StateFallen, now)
	case moving:
		t.transition(StateActive, now)
	default:
		if t.state != StateFallen {
			t.transition(StateImmobile, now)
		}
	}

	return now.Sub(t.lastMovement)
}

// ImmobileFor returns the time since the last movement, zero before any
// observation.
func (t *MovementTracker) ImmobileFor(now time.Time) time.Duration {
	if t.lastMovement.IsZero() {
		return 0
	}
	return now.Sub(t.lastMovement)
}

// State returns the current motion state and when it was entered.
func (t *MovementTracker) State() (MotionState, time.Time) {
	return t.state, t.changedAt
}

func (t *MovementTracker) transition(next MotionState, now time.Time) {
	if t.state == next {
		return
	}
	t.state = next
	t.changedAt = now
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
