package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keywarden/keywarden/internal/domain"
)

const challengeKeyPrefix = "2fa:"

// redisChallenge is the JSON payload stored under the challenge key.
type redisChallenge struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// verifyChallengeScript compares the stored challenge against the submitted
// id and code and deletes it on a match, atomically on the Redis side.
// Returns 1 on success, 0 on mismatch, -1 when no challenge exists.
var verifyChallengeScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
    return -1
end
local entry = cjson.decode(raw)
if entry.id ~= ARGV[1] or entry.code ~= ARGV[2] then
    return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

// RedisChallengeStore keeps challenges in Redis, one key per identity, with
// the challenge TTL enforced by key expiry. SET on an existing key replaces
// the prior challenge in a single command.
type RedisChallengeStore struct {
	client *redis.Client
	ttl    time.Duration
	clock  domain.Clock
}

// NewRedisChallengeStore creates a Redis-backed challenge store with the
// given challenge TTL.
func NewRedisChallengeStore(client *redis.Client, ttl time.Duration, clock domain.Clock) *RedisChallengeStore {
	return &RedisChallengeStore{client: client, ttl: ttl, clock: clock}
}

func challengeKey(email domain.Email) string {
	return challengeKeyPrefix + email.String()
}

// Issue generates a fresh challenge and writes it with SET, which both
// installs it and supersedes any prior challenge for the identity.
func (s *RedisChallengeStore) Issue(ctx context.Context, email domain.Email) (domain.Challenge, error) {
	code, err := domain.NewChallengeCode()
	if err != nil {
		return domain.Challenge{}, err
	}

	entry := redisChallenge{
		ID:        domain.NewChallengeID(),
		Code:      code,
		CreatedAt: s.clock.Now(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("marshal challenge: %w", err)
	}

	if err := s.client.Set(ctx, challengeKey(email), payload, s.ttl).Err(); err != nil {
		return domain.Challenge{}, fmt.Errorf("store challenge: %w", err)
	}

	return domain.Challenge{
		Email:     email,
		ID:        entry.ID,
		Code:      entry.Code,
		CreatedAt: entry.CreatedAt,
	}, nil
}

// Verify runs the compare-and-delete script so a matching challenge is
// consumed in the same step that validates it.
func (s *RedisChallengeStore) Verify(ctx context.Context, email domain.Email, id, code string) error {
	res, err := verifyChallengeScript.Run(ctx, s.client, []string{challengeKey(email)}, id, code).Int()
	if err != nil {
		return fmt.Errorf("verify challenge: %w", err)
	}
	switch res {
	case 1:
		return nil
	case 0:
		return domain.ErrChallengeMismatch
	default:
		return domain.ErrChallengeNotFound
	}
}

// Invalidate removes any challenge for the identity. Idempotent.
func (s *RedisChallengeStore) Invalidate(ctx context.Context, email domain.Email) error {
	if err := s.client.Del(ctx, challengeKey(email)).Err(); err != nil {
		return fmt.Errorf("invalidate challenge: %w", err)
	}
	return nil
}
