package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every Redis failure other than a missing key.
var ErrUnavailable = errors.New("session store unavailable")

// ErrMismatch is returned by Rotate when the stored token is absent or differs
// from the one presented.
var ErrMismatch = errors.New("refresh token does not match current session")

const (
	keyPrefix  = "refreshToken:"
	DefaultTTL = 7 * 24 * time.Hour
)

const rotateScript = `
local current = redis.call("GET", KEYS[1])
if not current or current ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`

var rotateLua = redis.NewScript(rotateScript)

// Store maps a user id to the single refresh token currently accepted for it.
type Store struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

func NewStore(rdb redis.UniversalClient, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{redis: rdb, ttl: ttl}
}

func key(userID string) string {
	return keyPrefix + userID
}

// Put overwrites the record for userID and resets its expiry.
func (s *Store) Put(ctx context.Context, userID, refreshToken string) error {
	if err := s.redis.Set(ctx, key(userID), refreshToken, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get reports the stored token; ok is false when no record exists.
func (s *Store) Get(ctx context.Context, userID string) (token string, ok bool, err error) {
	token, err = s.redis.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return token, true, nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Rotate replaces expected with next in one step. Exactly one of several
// concurrent callers presenting the same expected token succeeds.
func (s *Store) Rotate(ctx context.Context, userID, expected, next string) error {
	res, err := rotateLua.Run(ctx, s.redis, []string{key(userID)}, expected, next, s.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res != 1 {
		return ErrMismatch
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
