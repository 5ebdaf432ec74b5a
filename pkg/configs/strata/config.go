package strata

import (
	"time"

	"github.com/strataml/strata/pkg/domain"
)

// Configuration for a strata deployment, shared by the API server and the
// sweep loops.
//
// To get a `StrataConfig` instance, use `StrataConfigMarshall.TrySeal()`.
type StrataConfig struct {
	port     int32
	database string
	hot      *HotConfig
	cold     *ColdConfig
	sweep    *SweepConfig
	policies domain.Policies
}

// Port the API server listens on.
func (c *StrataConfig) Port() int32 {
	return c.port
}

// Connection string for the placement database.
func (c *StrataConfig) Database() string {
	return c.database
}

// Configuration for the hot tier backend.
func (c *StrataConfig) Hot() *HotConfig {
	return c.hot
}

// Configuration for the cold tier backend.
func (c *StrataConfig) Cold() *ColdConfig {
	return c.cold
}

// Configuration for the sweep loops.
func (c *StrataConfig) Sweep() *SweepConfig {
	return c.sweep
}

// Lifecycle policies, one per entity type.
func (c *StrataConfig) Policies() domain.Policies {
	return c.policies
}

type HotConfig struct {
	redis *RedisConfig
}

func (h *HotConfig) Redis() *RedisConfig {
	return h.redis
}

type RedisConfig struct {
	address  string
	password string
	db       int
}

// "host:port" of the Redis server.
func (r *RedisConfig) Address() string {
	return r.address
}

func (r *RedisConfig) Password() string {
	return r.password
}

func (r *RedisConfig) DB() int {
	return r.db
}

type ColdConfig struct {
	bucket string
	prefix string
}

// Name of the object storage bucket holding cold payloads.
func (c *ColdConfig) Bucket() string {
	return c.bucket
}

// Object name prefix inside the bucket. default = "cold/"
func (c *ColdConfig) Prefix() string {
	return c.prefix
}

type SweepConfig struct {
	interval       time.Duration
	orphanInterval time.Duration
	orphanGrace    time.Duration
	batchSize      int
	workers        int
}

// How long the tiering loop rests between cycles. default = 5m
func (s *SweepConfig) Interval() time.Duration {
	return s.interval
}

// How long the orphan loop rests between cycles. default = 30m
func (s *SweepConfig) OrphanInterval() time.Duration {
	return s.orphanInterval
}

// How old a non-canonical payload copy must be before the orphan loop
// may reclaim it. default = 15m
func (s *SweepConfig) OrphanGrace() time.Duration {
	return s.orphanGrace
}

// How many placement records one tracker page holds. default = 500
func (s *SweepConfig) BatchSize() int {
	return s.batchSize
}

// How many transitions one sweep cycle runs concurrently. default = 8
func (s *SweepConfig) Workers() int {
	return s.workers
}
