package stores

import (
	"context"
	"sync"
	"time"

	"github.com/keywarden/keywarden/internal/domain"
)

// MemoryRevocationList tracks revoked token IDs in a mutex-guarded map.
// Entries are purged lazily: each Revoke call sweeps expired entries, and
// IsRevoked treats an expired entry as absent.
type MemoryRevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	clock   domain.Clock
}

// NewMemoryRevocationList creates an empty in-memory revocation list.
func NewMemoryRevocationList(clock domain.Clock) *MemoryRevocationList {
	return &MemoryRevocationList{
		revoked: make(map[string]time.Time),
		clock:   clock,
	}
}

// Revoke marks the token ID as revoked until the TTL expires. Revoking an
// already revoked ID extends the entry when the new expiry is later.
func (l *MemoryRevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	now := l.clock.Now()
	expiry := now.Add(ttl)

	l.mu.Lock()
	defer l.mu.Unlock()

	for id, exp := range l.revoked {
		if now.After(exp) {
			delete(l.revoked, id)
		}
	}
	if existing, ok := l.revoked[tokenID]; !ok || expiry.After(existing) {
		l.revoked[tokenID] = expiry
	}
	return nil
}

// IsRevoked reports whether the token ID has an unexpired revocation entry.
func (l *MemoryRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	expiry, ok := l.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if l.clock.Now().After(expiry) {
		delete(l.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
