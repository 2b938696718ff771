package stores

import (
	"context"
	"sync"

	"github.com/keywarden/keywarden/internal/domain"
)

// MemoryUserStore keeps credential records in a process-local map guarded by
// a RWMutex. Registration uniqueness is enforced inside the write lock;
// password hashing and verification run outside any lock so a slow argon2id
// derivation never blocks other identities.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[domain.Email]domain.User
	clock domain.Clock
}

// NewMemoryUserStore creates an empty in-memory credential store.
func NewMemoryUserStore(clock domain.Clock) *MemoryUserStore {
	return &MemoryUserStore{
		users: make(map[domain.Email]domain.User),
		clock: clock,
	}
}

// Add registers a credential record. Exactly one of two concurrent Adds for
// the same identity succeeds: the hash is computed up front and the
// check-and-insert is a single critical section.
func (s *MemoryUserStore) Add(ctx context.Context, email domain.Email, password domain.Password, requiresTwoFactor bool) error {
	hash, err := hashPassword(string(password))
	if err != nil {
		return err
	}

	user := domain.User{
		Email:             email,
		PasswordHash:      hash,
		RequiresTwoFactor: requiresTwoFactor,
		CreatedAt:         s.clock.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[email]; exists {
		return domain.ErrUserAlreadyExists
	}
	s.users[email] = user
	return nil
}

// Get returns the credential record for the identity.
func (s *MemoryUserStore) Get(ctx context.Context, email domain.Email) (domain.User, error) {
	s.mu.RLock()
	user, exists := s.users[email]
	s.mu.RUnlock()

	if !exists {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// ValidateCredentials compares the candidate against the stored hash. The
// hash is copied out under the read lock; the argon2id comparison runs
// unlocked.
func (s *MemoryUserStore) ValidateCredentials(ctx context.Context, email domain.Email, candidate string) error {
	s.mu.RLock()
	user, exists := s.users[email]
	s.mu.RUnlock()

	if !exists {
		return domain.ErrUserNotFound
	}
	if !verifyPassword(candidate, user.PasswordHash) {
		return domain.ErrPasswordMismatch
	}
	return nil
}
