package strata

import (
	"fmt"
	"time"

	"github.com/strataml/strata/pkg/domain"
	"k8s.io/apimachinery/pkg/api/resource"
)

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/strata.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

// Configuration of a strata deployment.
//
// This type is marshalling value and mutable.
// Consider to use immutable version, `StrataConfig`.
// You can get `StrataConfig` instance with `StrataConfigMarshall.TrySeal()`
type StrataConfigMarshall struct {
	Port     int32                          `yaml:"port"`
	Database string                         `yaml:"database"`
	Hot      *HotConfigMarshall             `yaml:"hot"`
	Cold     *ColdConfigMarshall            `yaml:"cold"`
	Sweep    *SweepConfigMarshall           `yaml:"sweep,omitempty"`
	Policies map[string]*TierPolicyMarshall `yaml:"policies"`
}

var _ Marshalled[*StrataConfig] = &StrataConfigMarshall{}

// verify configuration value and create "readonly" version of this.
//
// IT WILL PANIC if any misconfiguration is found.
func (sm *StrataConfigMarshall) TrySeal() *StrataConfig {
	return sm.trySeal("(root)")
}

func (sm *StrataConfigMarshall) trySeal(path string) *StrataConfig {
	sweep := sm.Sweep
	if sweep == nil {
		sweep = &SweepConfigMarshall{}
	}

	if len(sm.Policies) == 0 {
		panic(path + ".policies is required")
	}
	policies := domain.Policies{}
	for name, p := range sm.Policies {
		ppath := fmt.Sprintf("%s.policies.%s", path, name)
		et, err := domain.AsEntityType(name)
		if err != nil {
			panic(fmt.Errorf("%s: %w", ppath, err))
		}
		policies[et] = nonnil(p, ppath).trySeal(ppath)
	}

	return &StrataConfig{
		port:     required(sm.Port, path+".port"),
		database: required(sm.Database, path+".database"),
		hot:      nonnil(sm.Hot, path+".hot").trySeal(path + ".hot"),
		cold:     nonnil(sm.Cold, path+".cold").trySeal(path + ".cold"),
		sweep:    sweep.trySeal(path + ".sweep"),
		policies: policies,
	}
}

type HotConfigMarshall struct {
	Redis *RedisConfigMarshall `yaml:"redis"`
}

func (hm *HotConfigMarshall) trySeal(path string) *HotConfig {
	return &HotConfig{
		redis: nonnil(hm.Redis, path+".redis").trySeal(path + ".redis"),
	}
}

type RedisConfigMarshall struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

func (rm *RedisConfigMarshall) trySeal(path string) *RedisConfig {
	return &RedisConfig{
		address:  required(rm.Address, path+".address"),
		password: rm.Password,
		db:       rm.DB,
	}
}

type ColdConfigMarshall struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix,omitempty"`
}

func (cm *ColdConfigMarshall) trySeal(path string) *ColdConfig {
	prefix := cm.Prefix
	if prefix == "" {
		prefix = "cold/"
	}
	return &ColdConfig{
		bucket: required(cm.Bucket, path+".bucket"),
		prefix: prefix,
	}
}

type SweepConfigMarshall struct {
	Interval       string `yaml:"interval,omitempty"`
	OrphanInterval string `yaml:"orphanInterval,omitempty"`
	OrphanGrace    string `yaml:"orphanGrace,omitempty"`
	BatchSize      int    `yaml:"batchSize,omitempty"`
	Workers        int    `yaml:"workers,omitempty"`
}

func (sm *SweepConfigMarshall) trySeal(path string) *SweepConfig {
	batchSize := sm.BatchSize
	if batchSize == 0 {
		batchSize = 500
	}
	if batchSize < 0 {
		panic(path + ".batchSize must be positive")
	}
	workers := sm.Workers
	if workers == 0 {
		workers = 8
	}
	if workers < 0 {
		panic(path + ".workers must be positive")
	}
	return &SweepConfig{
		interval:       duration(sm.Interval, 5*time.Minute, path+".interval"),
		orphanInterval: duration(sm.OrphanInterval, 30*time.Minute, path+".orphanInterval"),
		orphanGrace:    duration(sm.OrphanGrace, 15*time.Minute, path+".orphanGrace"),
		batchSize:      batchSize,
		workers:        workers,
	}
}

type TierPolicyMarshall struct {
	HotCapacity   string `yaml:"hotCapacity"`
	HotIdleTTL    string `yaml:"hotIdleTTL"`
	WarmTTL       string `yaml:"warmTTL"`
	ColdRetention string `yaml:"coldRetention,omitempty"`
}

func (tm *TierPolicyMarshall) trySeal(path string) domain.TierPolicy {
	capacity, err := resource.ParseQuantity(
		required(tm.HotCapacity, path+".hotCapacity"),
	)
	if err != nil {
		panic(fmt.Errorf("%s.hotCapacity can not be parsed: %w", path, err))
	}

	return domain.TierPolicy{
		HotCapacityBytes: capacity.Value(),
		HotIdleTTL:       duration(required(tm.HotIdleTTL, path+".hotIdleTTL"), 0, path+".hotIdleTTL"),
		WarmTTL:          duration(required(tm.WarmTTL, path+".warmTTL"), 0, path+".warmTTL"),
		ColdRetention:    duration(tm.ColdRetention, 0, path+".coldRetention"),
	}
}

func nonnil[T any](v *T, path string) *T {
	if v == nil {
		panic(path + " is required")
	}
	return v
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}

func duration(v string, fallback time.Duration, path string) time.Duration {
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s can not be parsed: %w", path, err))
	}
	return d
}
