package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by Redis.
const DefaultRedisPrefix = "tollgate:revoked:"

// setIfGreaterScript stores ARGV[1] only when it is newer than the current
// value so a late write never moves a subject cut-off backwards.
const setIfGreaterScript = `
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local nxt = tonumber(ARGV[1])
if nxt > cur then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
  return 1
end
return 0
`

var setIfGreaterLua = redis.NewScript(setIfGreaterScript)

// Redis keeps revocations as keys that expire with the revoked token.
// Writes are acknowledged by the server before Revoke returns.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ List = (*Redis)(nil)

// NewRedis returns a Redis list. An empty prefix uses DefaultRedisPrefix.
func NewRedis(rdb redis.UniversalClient, prefix string, now func() time.Time) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if now == nil {
		now = time.Now
	}
	return &Redis{rdb: rdb, prefix: prefix, now: now}
}

func (l *Redis) idKey(id string) string           { return l.prefix + "id:" + id }
func (l *Redis) subjectKey(subject string) string { return l.prefix + "subject:" + subject }

// ttl returns how long a record must live. Already expired tokens need no
// record at all.
func (l *Redis) ttl(expiresAt time.Time) (time.Duration, bool) {
	d := expiresAt.Sub(l.now())
	if d <= 0 {
		return 0, false
	}
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d, true
}

func (l *Redis) Revoke(ctx context.Context, rv domain.Revocation) (bool, error) {
	ttl, ok := l.ttl(rv.ExpiresAt)
	if !ok {
		return false, nil
	}

	if rv.Kind == domain.RevocationSubject {
		n, err := setIfGreaterLua.Run(ctx, l.rdb,
			[]string{l.subjectKey(rv.Subject)},
			rv.RevokedAt.UnixMilli(), ttl.Milliseconds(),
		).Int64()
		if err != nil {
			return false, fmt.Errorf("revocation: redis subject: %w", err)
		}
		return n == 1, nil
	}

	created, err := l.rdb.SetNX(ctx, l.idKey(rv.ID), rv.Kind, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("revocation: redis set: %w", err)
	}
	return created, nil
}

func (l *Redis) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := l.rdb.Exists(ctx, l.idKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation: redis exists: %w", err)
	}
	return n == 1, nil
}

func (l *Redis) SubjectRevokedAt(ctx context.Context, subject string) (time.Time, bool, error) {
	v, err := l.rdb.Get(ctx, l.subjectKey(subject)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("revocation: redis get: %w", err)
	}

	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("revocation: corrupt subject record: %w", err)
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

// Purge is a no-op: records carry their own TTL.
func (l *Redis) Purge(context.Context, time.Time) (int64, error) { return 0, nil }

func (l *Redis) Ping(ctx context.Context) error {
	if err := l.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("revocation: redis ping: %w", err)
	}
	return nil
}

// Count scans the namespace. Meant for the admin status endpoint only.
func (l *Redis) Count(ctx context.Context) (int64, error) {
	var (
		n      int64
		cursor uint64
	)
	for {
		keys, next, err := l.rdb.Scan(ctx, cursor, l.prefix+"*", 256).Result()
		if err != nil {
			return 0, fmt.Errorf("revocation: redis scan: %w", err)
		}
		n += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return n, nil
		}
	}
}
