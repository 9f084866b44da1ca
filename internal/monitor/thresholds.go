package monitor

import (
	"sync"

	"smartguard/internal/models"
)

// DefaultThresholds returns the fixed clinical defaults restored by Reset.
func DefaultThresholds() models.Thresholds {
	return models.Thresholds{
		MinHR:       40,
		MaxHR:       120,
		MinSpO2:     92,
		ImmobileSec: 600,
		FallG:       2.0,
	}
}

// ThresholdStore holds the active thresholds. Updates replace the whole
// value under the lock, so a concurrent evaluation never sees a partially
// applied set. Input ranges are not validated; callers may store min>max
// and the evaluator simply treats the comparisons as always true/false.
type ThresholdStore struct {
	mu      sync.RWMutex
	current models.Thresholds
}

func NewThresholdStore() *ThresholdStore {
	return &ThresholdStore{current: DefaultThresholds()}
}

func (s *ThresholdStore) Get() models.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update merges only the fields present in the patch and returns the full
// resulting set.
func (s *ThresholdStore) Update(patch models.ThresholdPatch) models.Thresholds {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if patch.MinHR != nil {
		next.MinHR = *patch.MinHR
	}
	if patch.MaxHR != nil {
		next.MaxHR = *patch.MaxHR
	}
	if patch.MinSpO2 != nil {
		next.MinSpO2 = *patch.MinSpO2
	}
	if patch.ImmobileSec != nil {
		next.ImmobileSec = *patch.ImmobileSec
	}
	if patch.FallG != nil {
		next.FallG = *patch.FallG
	}
	s.current = next
	return next
}

func (s *ThresholdStore) Reset() models.Thresholds {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = DefaultThresholds()
	return s.current
}
