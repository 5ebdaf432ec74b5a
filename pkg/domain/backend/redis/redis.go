// Package redis implements the hot tier on Redis.
//
// Payload bytes live under one key per entity. Next to them the store keeps
// an index hash (entity id -> "size storedAtUnix") and a running byte
// counter; both are updated atomically with the payload by small Lua scripts,
// so CapacityUsed and Entries never drift from the payloads even when writes
// and deletes race.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/domain/backend"
	berr "github.com/strataml/strata/pkg/domain/errors/backenderrors"
)

const (
	payloadKeyPrefix = "strata:payload:"
	indexKey         = "strata:index"
	bytesKey         = "strata:bytes"
)

// KEYS: payload key, index hash, byte counter. ARGV: entity id, payload,
// stored-at unix seconds.
var putScript = redis.NewScript(3, `
local old = redis.call('HGET', KEYS[2], ARGV[1])
if old then
	redis.call('DECRBY', KEYS[3], tonumber(string.match(old, '^%d+')))
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('HSET', KEYS[2], ARGV[1], string.len(ARGV[2]) .. ' ' .. ARGV[3])
redis.call('INCRBY', KEYS[3], string.len(ARGV[2]))
return 'OK'
`)

// KEYS: payload key, index hash, byte counter. ARGV: entity id.
var deleteScript = redis.NewScript(3, `
local old = redis.call('HGET', KEYS[2], ARGV[1])
if old then
	redis.call('DECRBY', KEYS[3], tonumber(string.match(old, '^%d+')))
	redis.call('HDEL', KEYS[2], ARGV[1])
end
redis.call('DEL', KEYS[1])
return 'OK'
`)

type storeRedis struct {
	pool *redis.Pool
	now  func() time.Time
}

type Option func(*storeRedis) *storeRedis

// WithClock replaces the time source stamping stored-at. For tests.
func WithClock(now func() time.Time) Option {
	return func(s *storeRedis) *storeRedis {
		s.now = now
		return s
	}
}

func New(pool *redis.Pool, option ...Option) backend.HotStore {
	s := &storeRedis{pool: pool, now: time.Now}
	for _, opt := range option {
		s = opt(s)
	}
	return s
}

func payloadKey(entityID string) string {
	return payloadKeyPrefix + entityID
}

func (s *storeRedis) Put(ctx context.Context, entityID string, payload []byte) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return berr.Unavailable{Tier: domain.TierHot, EntityID: entityID, Cause: err}
	}
	defer conn.Close()

	_, err = putScript.Do(
		conn,
		payloadKey(entityID), indexKey, bytesKey,
		entityID, payload, s.now().Unix(),
	)
	if err != nil {
		return berr.Unavailable{Tier: domain.TierHot, EntityID: entityID, Cause: err}
	}
	return nil
}

func (s *storeRedis) Get(ctx context.Context, entityID string) ([]byte, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, berr.Unavailable{Tier: domain.TierHot, EntityID: entityID, Cause: err}
	}
	defer conn.Close()

	payload, err := redis.Bytes(conn.Do("GET", payloadKey(entityID)))
	if err == redis.ErrNil {
		return nil, berr.Missing{Tier: domain.TierHot, EntityID: entityID}
	}
	if err != nil {
		return nil, berr.Unavailable{Tier: domain.TierHot, EntityID: entityID, Cause: err}
	}
	return payload, nil
}

func (s *storeRedis) Delete(ctx context.Context, entityID string) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return berr.Unavailable{Tier: domain.TierHot, EntityID: entityID, Cause: err}
	}
	defer conn.Close()

	if _, err := deleteScript.Do(conn, payloadKey(entityID), indexKey, bytesKey, entityID); err != nil {
		return berr.Unavailable{Tier: domain.TierHot, EntityID: entityID, Cause: err}
	}
	return nil
}

func (s *storeRedis) Exists(ctx context.Context, entityID string) (bool, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return false, berr.Unavailable{Tier: domain.TierHot, EntityID: entityID, Cause: err}
	}
	defer conn.Close()

	found, err := redis.Bool(conn.Do("EXISTS", payloadKey(entityID)))
	if err != nil {
		return false, berr.Unavailable{Tier: domain.TierHot, EntityID: entityID, Cause: err}
	}
	return found, nil
}

func (s *storeRedis) Entries(ctx context.Context) ([]domain.PayloadEntry, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, berr.Unavailable{Tier: domain.TierHot, Cause: err}
	}
	defer conn.Close()

	index, err := redis.StringMap(conn.Do("HGETALL", indexKey))
	if err != nil {
		return nil, berr.Unavailable{Tier: domain.TierHot, Cause: err}
	}

	entries := make([]domain.PayloadEntry, 0, len(index))
	for entityID, value := range index {
		entry, err := parseIndexValue(entityID, value)
		if err != nil {
			return nil, berr.Unavailable{Tier: domain.TierHot, EntityID: entityID, Cause: err}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseIndexValue(entityID string, value string) (domain.PayloadEntry, error) {
	sizePart, atPart, ok := strings.Cut(value, " ")
	if !ok {
		return domain.PayloadEntry{}, fmt.Errorf("broken index entry: %q", value)
	}
	size, err := strconv.ParseInt(sizePart, 10, 64)
	if err != nil {
		return domain.PayloadEntry{}, err
	}
	at, err := strconv.ParseInt(atPart, 10, 64)
	if err != nil {
		return domain.PayloadEntry{}, err
	}
	return domain.PayloadEntry{
		EntityID: entityID, Size: size, StoredAt: time.Unix(at, 0),
	}, nil
}

func (s *storeRedis) CapacityUsed(ctx context.Context) (int64, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return 0, berr.Unavailable{Tier: domain.TierHot, Cause: err}
	}
	defer conn.Close()

	used, err := redis.Int64(conn.Do("GET", bytesKey))
	if err == redis.ErrNil {
		return 0, nil
	}
	if err != nil {
		return 0, berr.Unavailable{Tier: domain.TierHot, Cause: err}
	}
	return used, nil
}
