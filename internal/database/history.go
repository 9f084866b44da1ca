package database

import (
	"context"
	"log"
	"sync"
	"time"

	"smartguard/internal/models"
)

const storeTimeout = 5 * time.Second

// Durable is the subset of Repository the history store needs; split out
// so tests can substitute a failing backend.
type Durable interface {
	SaveAlarm(ctx context.Context, userID string, ev models.AlarmEvent) error
	HistoryByUser(ctx context.Context, userID string) ([]models.AlarmEvent, error)
}

// HistoryStore fronts the durable repository with a per-user in-memory
// copy. When the durable store is unreachable, appends land in the cache
// and reads serve from it; cached-but-unsynced entries are replayed into
// the durable store on the next successful touch. An unreachable store
// therefore degrades history, never ingestion.
type HistoryStore struct {
	durable Durable
	cap     int

	mu       sync.Mutex
	cache    map[string][]models.AlarmEvent // newest first
	unsynced map[string][]models.AlarmEvent // oldest first, pending replay
}

func NewHistoryStore(durable Durable, historyCap int) *HistoryStore {
	return &HistoryStore{
		durable:  durable,
		cap:      historyCap,
		cache:    make(map[string][]models.AlarmEvent),
		unsynced: make(map[string][]models.AlarmEvent),
	}
}

// Append stores one event for the user. The returned flag reports whether
// the event only reached the local cache.
func (s *HistoryStore) Append(ctx context.Context, userID string, ev models.AlarmEvent) (cached bool, err error) {
	s.mu.Lock()
	if head, ok := s.cache[userID]; ok && len(head) > 0 && head[0].Timestamp == ev.Timestamp {
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	s.replay(ctx, userID)

	if err := s.durable.SaveAlarm(ctx, userID, ev); err != nil {
		log.Printf("Durable alarm save failed for user %s, caching locally: %v", userID, err)
		s.mu.Lock()
		s.unsynced[userID] = append(s.unsynced[userID], ev)
		s.pushCacheLocked(userID, ev)
		s.mu.Unlock()
		return true, nil
	}

	s.mu.Lock()
	s.pushCacheLocked(userID, ev)
	s.mu.Unlock()
	return false, nil
}

// History lists the user's alarms newest first, bounded by the cap. It
// serves the cached copy when the durable store cannot be read.
func (s *HistoryStore) History(ctx context.Context, userID string) []models.AlarmEvent {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	s.replay(ctx, userID)

	events, err := s.durable.HistoryByUser(ctx, userID)
	if err != nil {
		log.Printf("Durable history read failed for user %s, serving cached copy: %v", userID, err)
		s.mu.Lock()
		defer s.mu.Unlock()
		return append([]models.AlarmEvent(nil), s.cache[userID]...)
	}

	s.mu.Lock()
	s.cache[userID] = append([]models.AlarmEvent(nil), events...)
	s.mu.Unlock()
	return events
}

// replay pushes any cached-but-unsynced entries into the durable store,
// stopping at the first failure so order is preserved.
func (s *HistoryStore) replay(ctx context.Context, userID string) {
	s.mu.Lock()
	pending := s.unsynced[userID]
	s.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	synced := 0
	for _, ev := range pending {
		if err := s.durable.SaveAlarm(ctx, userID, ev); err != nil {
			break
		}
		synced++
	}
	if synced == 0 {
		return
	}

	s.mu.Lock()
	remaining := s.unsynced[userID][synced:]
	if len(remaining) == 0 {
		delete(s.unsynced, userID)
	} else {
		s.unsynced[userID] = append([]models.AlarmEvent(nil), remaining...)
	}
	s.mu.Unlock()
	log.Printf("Replayed %d cached alarm(s) for user %s into the durable store", synced, userID)
}

func (s *HistoryStore) pushCacheLocked(userID string, ev models.AlarmEvent) {
	entries := append([]models.AlarmEvent{ev}, s.cache[userID]...)
	if len(entries) > s.cap {
		entries = entries[:s.cap]
	}
	s.cache[userID] = entries
}
