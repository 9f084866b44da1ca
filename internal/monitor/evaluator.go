package monitor

import (
	"math"
	"time"

	"smartguard/internal/models"
)

const (
	// criticalHRBelow and criticalImmobileSec form the compound collapse
	// rule: a heart rate under the floor while the subject has not moved
	// for longer than the window.
	criticalHRBelow     = 45
	criticalImmobileSec = 3
)

// Evaluator converts one measurement into an ordered, de-duplicated set of
// alarm kinds, mutating its movement tracker as a side effect. It is the
// one stateful, order-sensitive component of the pipeline; the caller must
// serialize Evaluate per subject.
type Evaluator struct {
	tracker *MovementTracker
	now     func() time.Time
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		tracker: NewMovementTracker(),
		now:     time.Now,
	}
}

// NewEvaluatorAt builds an evaluator with an injected clock.
func NewEvaluatorAt(now func() time.Time) *Evaluator {
	return &Evaluator{
		tracker: NewMovementTracker(),
		now:     now,
	}
}

// Tracker exposes the movement state, e.g. for status reporting.
func (e *Evaluator) Tracker() *MovementTracker {
	return e.tracker
}

// Evaluate applies the rule list in fixed order. Absent fields skip their
// checks; it never fails.
func (e *Evaluator) Evaluate(m models.Measurement, th models.Thresholds) []models.AlarmKind {
	now := e.now()
	var kinds []models.AlarmKind

	if m.HeartRate != nil {
		if *m.HeartRate < th.MinHR {
			kinds = appendKind(kinds, models.AlarmHRLow)
		}
		if *m.HeartRate > th.MaxHR {
			kinds = appendKind(kinds, models.AlarmHRHigh)
		}
	}

	if m.SpO2 != nil && *m.SpO2 < th.MinSpO2 {
		kinds = appendKind(kinds, models.AlarmSpO2Low)
	}

	var magnitude float64
	hasMag := m.AX != nil && m.AY != nil && m.AZ != nil
	fell := false
	if hasMag {
		magnitude = math.Sqrt(*m.AX**m.AX + *m.AY**m.AY + *m.AZ**m.AZ)
		if magnitude > th.FallG {
			kinds = appendKind(kinds, models.AlarmFall)
			fell = true
		}
	}

	immobileFor := e.tracker.Observe(now, magnitude, hasMag, m.HeartRate, m.SpO2, fell)
	immobileSec := immobileFor.Seconds()
	if immobileSec > float64(th.ImmobileSec) {
		kinds = appendKind(kinds, models.AlarmImmobile)
	}

	if m.HeartRate != nil && *m.HeartRate < criticalHRBelow && immobileSec > criticalImmobileSec {
		kinds = appendKind(kinds, models.AlarmCriticalHR)
	}

	// Producer-asserted kinds (e.g. MANUAL) are unioned in verbatim.
	for _, k := range m.Alarms {
		kinds = appendKind(kinds, k)
	}

	return kinds
}

func appendKind(kinds []models.AlarmKind, k models.AlarmKind) []models.AlarmKind {
	for _, have := range kinds {
		if have == k {
			return kinds
		}
	}
	return append(kinds, k)
}
