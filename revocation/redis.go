package revocation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces the keys written by RedisStore.
const DefaultKeyPrefix = "hsjwt:revoked:"

// RedisStore keeps revoked ids in Redis, one key per id, expiring together
// with the token. The client is owned by the caller and is not closed by
// Close.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
	closed atomic.Bool
}

var _ Store = (*RedisStore)(nil)

// extendScript writes the key only when the new TTL outlives the current one.
// PTTL is -2 for a missing key and -1 for a key without expiry.
var extendScript = redis.NewScript(`
local current = redis.call('PTTL', KEYS[1])
local ttl = tonumber(ARGV[2])
if current == -1 or current >= ttl then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// NewRedisStore returns a RedisStore writing keys under prefix, or
// DefaultKeyPrefix when prefix is empty.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// Add stores id with a TTL that ends at expiresAt. An id whose expiry has
// already passed is not written, and an existing entry that lives longer is
// left alone.
func (r *RedisStore) Add(ctx context.Context, id string, expiresAt time.Time) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	if id == "" {
		return ErrEmptyID
	}

	ttl := expiresAt.Sub(r.now()).Milliseconds()
	if ttl <= 0 {
		return nil
	}
	err := extendScript.Run(ctx, r.client, []string{r.key(id)}, expiresAt.Unix(), ttl).Err()
	if err != nil {
		return fmt.Errorf("revoke %q: %w", id, err)
	}
	return nil
}

func (r *RedisStore) Contains(ctx context.Context, id string) (bool, error) {
	if r.closed.Load() {
		return false, ErrStoreClosed
	}
	n, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation %q: %w", id, err)
	}
	return n > 0, nil
}

func (r *RedisStore) Remove(ctx context.Context, id string) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("remove revocation %q: %w", id, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	r.closed.Store(true)
	return nil
}
