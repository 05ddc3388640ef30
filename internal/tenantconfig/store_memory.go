package tenantconfig

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps configuration rows in a map for tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	configs map[string]Config
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{configs: make(map[string]Config)}
}

func (s *InMemoryStore) ListByApp(_ context.Context, appID string) ([]Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var configs []Config
	for _, cfg := range s.configs {
		if cfg.AppID == appID {
			configs = append(configs, cfg)
		}
	}
	return configs, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.configs[cfg.Key()]; ok {
		cfg.CreatedAt = existing.CreatedAt
	} else {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	s.configs[cfg.Key()] = cfg
	return nil
}
