package identity

import (
	"context"
	"sync"
	"time"

	"unify/pkg/domain"
)

type accountKey struct {
	muuid  domain.MUUID
	brand  string
	region string
}

// InMemoryStore mirrors the postgres store's semantics for tests, including
// the unique-email and set-on-insert behavior.
type InMemoryStore struct {
	mu         sync.RWMutex
	emailOwner map[string]domain.MUUID
	emails     map[domain.MUUID][]EmailRecord
	accounts   map[accountKey]LocalAccount
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		emailOwner: make(map[string]domain.MUUID),
		emails:     make(map[domain.MUUID][]EmailRecord),
		accounts:   make(map[accountKey]LocalAccount),
	}
}

func (s *InMemoryStore) FindIdentityByEmail(_ context.Context, email string) (domain.MUUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	muuid, ok := s.emailOwner[email]
	if !ok {
		return domain.MUUID{}, ErrNotFound
	}
	return muuid, nil
}

func (s *InMemoryStore) CreateIdentity(_ context.Context, muuid domain.MUUID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emailOwner[email]; taken {
		return ErrEmailTaken
	}
	s.emailOwner[email] = muuid
	s.emails[muuid] = []EmailRecord{{MUUID: muuid, Email: email, Ord: 1, CreatedAt: time.Now()}}
	return nil
}

func (s *InMemoryStore) EmailExists(_ context.Context, muuid domain.MUUID, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.emailOwner[email]
	return ok && owner == muuid, nil
}

func (s *InMemoryStore) AppendEmail(_ context.Context, muuid domain.MUUID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, taken := s.emailOwner[email]; taken && owner != muuid {
		return ErrEmailTaken
	}
	s.emailOwner[email] = muuid
	s.emails[muuid] = append(s.emails[muuid], EmailRecord{
		MUUID:     muuid,
		Email:     email,
		Ord:       len(s.emails[muuid]) + 1,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *InMemoryStore) ListEmails(_ context.Context, muuid domain.MUUID) ([]EmailRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]EmailRecord{}, s.emails[muuid]...), nil
}

func (s *InMemoryStore) FindAccountIdentityByUUID(_ context.Context, uuid string) (*AccountIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if acc.UUID != uuid {
			continue
		}
		history := s.emails[acc.MUUID]
		if len(history) == 0 {
			return nil, nil
		}
		latest := history[len(history)-1]
		return &AccountIdentity{
			MUUID:    acc.MUUID,
			Email:    latest.Email,
			BrandID:  acc.BrandID,
			RegionID: acc.RegionID,
		}, nil
	}
	return nil, nil
}

func (s *InMemoryStore) FindLocalAccount(_ context.Context, muuid domain.MUUID, brand, region string) (*LocalAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[accountKey{muuid: muuid, brand: brand, region: region}]
	if !ok {
		return nil, ErrNotFound
	}
	copied := acc
	return &copied, nil
}

func (s *InMemoryStore) UpsertLocalAccount(_ context.Context, acc LocalAccount) (LocalAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()

	if acc.MUUID.IsNil() {
		for key, existing := range s.accounts {
			if existing.UUID == acc.UUID && existing.BrandID == acc.BrandID && existing.RegionID == acc.RegionID {
				existing = applyMutable(existing, acc, now)
				s.accounts[key] = existing
				return existing, nil
			}
		}
		return LocalAccount{}, ErrNotFound
	}

	key := accountKey{muuid: acc.MUUID, brand: acc.BrandID, region: acc.RegionID}
	if existing, ok := s.accounts[key]; ok {
		existing = applyMutable(existing, acc, now)
		s.accounts[key] = existing
		return existing, nil
	}
	acc.CreatedAt = now
	acc.UpdatedAt = now
	s.accounts[key] = acc
	return acc, nil
}

func (s *InMemoryStore) DeleteLocalAccounts(_ context.Context, muuid domain.MUUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key := range s.accounts {
		if key.muuid == muuid {
			delete(s.accounts, key)
			deleted++
		}
	}
	return deleted, nil
}

// applyMutable overwrites the mutable field set, leaving the identity
// fields (MUUID, brand, region) and CreatedAt untouched.
func applyMutable(existing, acc LocalAccount, now time.Time) LocalAccount {
	existing.UUID = acc.UUID
	existing.ToolUsage = acc.ToolUsage
	existing.Company = acc.Company
	existing.Source = acc.Source
	existing.AccountType = acc.AccountType
	existing.Shop = acc.Shop
	existing.Retailers = acc.Retailers
	existing.UpdatedAt = now
	return existing
}
