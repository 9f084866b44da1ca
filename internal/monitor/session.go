package monitor

import (
	"sync"

	"smartguard/internal/models"
)

// Publisher receives every evaluated snapshot. Publish must not block;
// the session calls it while holding the ingestion lock.
type Publisher interface {
	Publish(snapshot models.Snapshot)
}

// MonitoringSession owns the mutable monitoring state for one subject:
// the evaluator's temporal state and the latest snapshot. Ingest is the
// single serialized entry point, so two measurements never interleave
// their immobility computations.
type MonitoringSession struct {
	mu         sync.Mutex
	thresholds *ThresholdStore
	evaluator  *Evaluator
	latest     *models.Snapshot
	publisher  Publisher
}

func NewMonitoringSession(thresholds *ThresholdStore, evaluator *Evaluator, publisher Publisher) *MonitoringSession {
	return &MonitoringSession{
		thresholds: thresholds,
		evaluator:  evaluator,
		publisher:  publisher,
	}
}

// Ingest evaluates one measurement against the thresholds in effect right
// now, stores the snapshot as latest and publishes it. The whole step is
// atomic: the next measurement is not accepted until this one is done.
func (s *MonitoringSession) Ingest(m models.Measurement) models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	th := s.thresholds.Get()
	kinds := s.evaluator.Evaluate(m, th)
	snapshot := models.Snapshot{Measurement: m, Alarms: kinds}
	s.latest = &snapshot

	if s.publisher != nil {
		s.publisher.Publish(snapshot)
	}
	return snapshot
}

// Latest returns the most recent snapshot, or nil before any ingestion.
func (s *MonitoringSession) Latest() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Thresholds exposes the store for the HTTP surface.
func (s *MonitoringSession) Thresholds() *ThresholdStore {
	return s.thresholds
}
