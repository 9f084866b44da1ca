package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartguard/internal/models"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func stillMeasurement(hr, spo2 int) models.Measurement {
	return models.Measurement{
		HeartRate: intPtr(hr),
		SpO2:      intPtr(spo2),
		AX:        floatPtr(0),
		AY:        floatPtr(0),
		AZ:        floatPtr(0.03),
	}
}

func TestEvaluateHeartRateBounds(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name string
		hr   int
		want []models.AlarmKind
	}{
		{"below minimum", 35, []models.AlarmKind{models.AlarmHRLow}},
		{"above maximum", 130, []models.AlarmKind{models.AlarmHRHigh}},
		{"at minimum", 40, nil},
		{"at maximum", 120, nil},
		{"normal", 70, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator()
			kinds := e.Evaluate(models.Measurement{HeartRate: intPtr(tt.hr)}, th)
			assert.Equal(t, tt.want, kinds)
		})
	}
}

func TestEvaluateSpO2(t *testing.T) {
	th := DefaultThresholds()

	e := NewEvaluator()
	kinds := e.Evaluate(models.Measurement{SpO2: intPtr(88)}, th)
	assert.Equal(t, []models.AlarmKind{models.AlarmSpO2Low}, kinds)

	e = NewEvaluator()
	kinds = e.Evaluate(models.Measurement{SpO2: intPtr(92)}, th)
	assert.Empty(t, kinds)
}

func TestEvaluateFallMagnitude(t *testing.T) {
	th := DefaultThresholds()

	e := NewEvaluator()
	// sqrt(3^2+3^2+3^2) ~ 5.2g, well past the 2.0g cutoff.
	m := models.Measurement{AX: floatPtr(3), AY: floatPtr(3), AZ: floatPtr(3)}
	kinds := e.Evaluate(m, th)
	assert.Contains(t, kinds, models.AlarmFall)

	e = NewEvaluator()
	m = models.Measurement{AX: floatPtr(0), AY: floatPtr(0), AZ: floatPtr(1)}
	kinds = e.Evaluate(m, th)
	assert.NotContains(t, kinds, models.AlarmFall)
}

func TestEvaluateMissingFieldsSkipChecks(t *testing.T) {
	e := NewEvaluator()
	kinds := e.Evaluate(models.Measurement{}, DefaultThresholds())
	assert.Empty(t, kinds)
}

func TestEvaluateImmobility(t *testing.T) {
	th := DefaultThresholds()
	th.ImmobileSec = 8

	clock := newFakeClock()
	e := NewEvaluatorAt(clock.Now)

	// Still samples spanning the immobile window. Identical vitals so the
	// jitter rule does not classify them as movement.
	for i := 0; i < 4; i++ {
		kinds := e.Evaluate(stillMeasurement(70, 97), th)
		assert.NotContains(t, kinds, models.AlarmImmobile, "sample %d fired too early", i)
		clock.Advance(2 * time.Second)
	}
	clock.Advance(1 * time.Second) // 9s since the first observation
	kinds := e.Evaluate(stillMeasurement(70, 97), th)
	assert.Contains(t, kinds, models.AlarmImmobile)
}

func TestEvaluateMovementResetsImmobilityTimer(t *testing.T) {
	th := DefaultThresholds()
	th.ImmobileSec = 8

	clock := newFakeClock()
	e := NewEvaluatorAt(clock.Now)

	e.Evaluate(stillMeasurement(70, 97), th)
	clock.Advance(5 * time.Second)

	// A clear movement sample resets the timer.
	moving := models.Measurement{
		HeartRate: intPtr(70),
		SpO2:      intPtr(97),
		AX:        floatPtr(0.4),
		AY:        floatPtr(0),
		AZ:        floatPtr(0.9),
	}
	e.Evaluate(moving, th)

	clock.Advance(6 * time.Second) // 11s after start, 6s after movement
	kinds := e.Evaluate(stillMeasurement(70, 97), th)
	assert.NotContains(t, kinds, models.AlarmImmobile)

	clock.Advance(3 * time.Second) // 9s after movement
	kinds = e.Evaluate(stillMeasurement(70, 97), th)
	assert.Contains(t, kinds, models.AlarmImmobile)
}

func TestEvaluateVitalJitterCountsAsMovement(t *testing.T) {
	th := DefaultThresholds()
	th.ImmobileSec = 8

	clock := newFakeClock()
	e := NewEvaluatorAt(clock.Now)

	e.Evaluate(stillMeasurement(70, 97), th)
	clock.Advance(6 * time.Second)
	// HR jumps by more than 2 bpm: classified as movement even though the
	// accelerometer reads still.
	e.Evaluate(stillMeasurement(75, 97), th)

	clock.Advance(5 * time.Second)
	kinds := e.Evaluate(stillMeasurement(75, 97), th)
	assert.NotContains(t, kinds, models.AlarmImmobile)
}

func TestEvaluateCriticalHeartRate(t *testing.T) {
	th := DefaultThresholds()
	clock := newFakeClock()
	e := NewEvaluatorAt(clock.Now)

	e.Evaluate(stillMeasurement(35, 90), th)
	clock.Advance(4 * time.Second)

	kinds := e.Evaluate(stillMeasurement(35, 90), th)
	assert.Equal(t, []models.AlarmKind{models.AlarmHRLow, models.AlarmSpO2Low, models.AlarmCriticalHR}, kinds)
}

func TestEvaluateProducerAssertedKindsPassThrough(t *testing.T) {
	e := NewEvaluator()
	m := models.Measurement{
		HeartRate: intPtr(30),
		Alarms:    []models.AlarmKind{models.AlarmManual, "CUSTOM_KIND", models.AlarmHRLow},
	}
	kinds := e.Evaluate(m, DefaultThresholds())
	// HR_LOW already present from evaluation; asserted kinds union in
	// without duplication and unknown kinds pass through verbatim.
	assert.Equal(t, []models.AlarmKind{models.AlarmHRLow, models.AlarmManual, "CUSTOM_KIND"}, kinds)
}

func TestEvaluateDeterministic(t *testing.T) {
	th := DefaultThresholds()
	m := models.Measurement{
		HeartRate: intPtr(35),
		SpO2:      intPtr(88),
		AX:        floatPtr(2),
		AY:        floatPtr(2),
		AZ:        floatPtr(2),
	}

	clockA := newFakeClock()
	clockB := newFakeClock()
	a := NewEvaluatorAt(clockA.Now)
	b := NewEvaluatorAt(clockB.Now)

	kindsA := a.Evaluate(m, th)
	kindsB := b.Evaluate(m, th)
	require.Equal(t, kindsA, kindsB)
}

func TestEvaluateInvertedThresholdsDoNotPanic(t *testing.T) {
	th := models.Thresholds{MinHR: 120, MaxHR: 40, MinSpO2: 92, ImmobileSec: 600, FallG: 2.0}
	e := NewEvaluator()

	kinds := e.Evaluate(models.Measurement{HeartRate: intPtr(70)}, th)
	// With min>max both bounds fire; the evaluator stays deterministic.
	assert.Equal(t, []models.AlarmKind{models.AlarmHRLow, models.AlarmHRHigh}, kinds)
}
