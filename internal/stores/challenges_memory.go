package stores

import (
	"context"
	"sync"
	"time"

	"github.com/keywarden/keywarden/internal/domain"
)

// MemoryChallengeStore keeps at most one live challenge per identity in a
// mutex-guarded map. Issue and Verify are single critical sections, so two
// concurrent logins for one identity can never leave two verifiable
// challenges behind, and a consumed challenge can never verify twice.
type MemoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[domain.Email]memoryChallenge
	ttl        time.Duration
	clock      domain.Clock
}

type memoryChallenge struct {
	id        string
	code      string
	createdAt time.Time
	expiresAt time.Time
}

// NewMemoryChallengeStore creates an empty in-memory challenge store with
// the given challenge TTL.
func NewMemoryChallengeStore(ttl time.Duration, clock domain.Clock) *MemoryChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[domain.Email]memoryChallenge),
		ttl:        ttl,
		clock:      clock,
	}
}

// Issue generates a fresh challenge and installs it, superseding any prior
// challenge for the identity. Generation happens before the lock; the map
// write is the atomic replace.
func (s *MemoryChallengeStore) Issue(ctx context.Context, email domain.Email) (domain.Challenge, error) {
	code, err := domain.NewChallengeCode()
	if err != nil {
		return domain.Challenge{}, err
	}

	now := s.clock.Now()
	entry := memoryChallenge{
		id:        domain.NewChallengeID(),
		code:      code,
		createdAt: now,
		expiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.challenges[email] = entry
	s.mu.Unlock()

	return domain.Challenge{
		Email:     email,
		ID:        entry.id,
		Code:      entry.code,
		CreatedAt: entry.createdAt,
	}, nil
}

// Verify checks id and code against the live challenge and deletes it on a
// match, all under one lock. An expired challenge is removed and reported
// exactly like an absent one.
func (s *MemoryChallengeStore) Verify(ctx context.Context, email domain.Email, id, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.challenges[email]
	if !exists {
		return domain.ErrChallengeNotFound
	}
	if s.clock.Now().After(entry.expiresAt) {
		delete(s.challenges, email)
		return domain.ErrChallengeNotFound
	}
	if entry.id != id || entry.code != code {
		return domain.ErrChallengeMismatch
	}

	delete(s.challenges, email)
	return nil
}

// Invalidate removes any challenge for the identity. Idempotent.
func (s *MemoryChallengeStore) Invalidate(ctx context.Context, email domain.Email) error {
	s.mu.Lock()
	delete(s.challenges, email)
	s.mu.Unlock()
	return nil
}
