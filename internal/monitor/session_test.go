package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartguard/internal/models"
)

type capturePublisher struct {
	published []models.Snapshot
}

func (p *capturePublisher) Publish(snapshot models.Snapshot) {
	p.published = append(p.published, snapshot)
}

func TestSessionIngestUpdatesLatestAndPublishes(t *testing.T) {
	pub := &capturePublisher{}
	session := NewMonitoringSession(NewThresholdStore(), NewEvaluator(), pub)

	assert.Nil(t, session.Latest())

	m := models.Measurement{Timestamp: 1700000000000, HeartRate: intPtr(35)}
	snap := session.Ingest(m)
	assert.Equal(t, []models.AlarmKind{models.AlarmHRLow}, snap.Alarms)

	latest := session.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, snap, *latest)

	require.Len(t, pub.published, 1)
	assert.Equal(t, snap, pub.published[0])
}

func TestSessionUsesThresholdsInEffectAtEvaluation(t *testing.T) {
	session := NewMonitoringSession(NewThresholdStore(), NewEvaluator(), nil)

	m := models.Measurement{HeartRate: intPtr(50)}
	snap := session.Ingest(m)
	assert.Empty(t, snap.Alarms)

	session.Thresholds().Update(models.ThresholdPatch{MinHR: intPtr(60)})
	snap = session.Ingest(m)
	assert.Equal(t, []models.AlarmKind{models.AlarmHRLow}, snap.Alarms)
}
