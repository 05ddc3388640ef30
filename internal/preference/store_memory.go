package preference

import (
	"context"
	"sort"
	"sync"
	"time"

	"unify/pkg/domain"
)

// InMemoryStore mirrors the postgres store's semantics for tests: the
// MUUID-else-UUID upsert filter, the most-recently-updated ordering, and
// hard deletes only via Delete.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
	// clock lets tests control UpdatedAt ordering.
	clock func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{clock: time.Now}
}

func (s *InMemoryStore) matchIndex(rec Record) int {
	for i := range s.records {
		existing := &s.records[i]
		if existing.BrandID != rec.BrandID || existing.RegionID != rec.RegionID || existing.MarketID != rec.MarketID {
			continue
		}
		if !rec.MUUID.IsNil() {
			if existing.MUUID == rec.MUUID {
				return i
			}
			continue
		}
		if existing.UUID == rec.UUID {
			return i
		}
	}
	return -1
}

func (s *InMemoryStore) Upsert(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()

	if i := s.matchIndex(rec); i >= 0 {
		existing := s.records[i]
		rec.MUUID = existing.MUUID
		rec.BrandID = existing.BrandID
		rec.RegionID = existing.RegionID
		rec.MarketID = existing.MarketID
		rec.CreatedAt = existing.CreatedAt
		rec.UpdatedAt = now
		s.records[i] = rec
		return rec, nil
	}

	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *InMemoryStore) Query(_ context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Record
	for _, rec := range s.records {
		if q.Selector.HasMUUID() && rec.MUUID != q.Selector.MUUID {
			continue
		}
		if !q.Selector.HasMUUID() && q.Selector.UUID != "" && rec.UUID != q.Selector.UUID {
			continue
		}
		if q.BrandID != "" && rec.BrandID != q.BrandID {
			continue
		}
		if q.RegionID != "" && rec.RegionID != q.RegionID {
			continue
		}
		if q.MarketID != "" && rec.MarketID != q.MarketID {
			continue
		}
		matched = append(matched, rec)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	return matched, nil
}

func (s *InMemoryStore) Delete(_ context.Context, muuid domain.MUUID, market string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []Record
	var deleted int64
	for _, rec := range s.records {
		if rec.MUUID == muuid && (market == "" || rec.MarketID == market) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return deleted, nil
}
