package strata_test

import (
	"testing"
	"time"

	kconf "github.com/strataml/strata/pkg/configs/strata"
	"github.com/strataml/strata/pkg/domain"
)

func TestConfigMarshall(t *testing.T) {
	t.Run("it loads config from yaml: ", func(t *testing.T) {
		strataYml := []byte(`
port: 12345
database: postgres://strata-testing:5432/strata
hot:
  redis:
    address: redis.strata-testing.svc:6379
    password: fake-password
    db: 3
cold:
  bucket: strata-testing-cold
  prefix: archive/
sweep:
  interval: 90s
  orphanInterval: 45m
  orphanGrace: 20m
  batchSize: 250
  workers: 4
policies:
  model-weight:
    hotCapacity: 64Gi
    hotIdleTTL: 72h
    warmTTL: 720h
  conversation-context:
    hotCapacity: 16Gi
    hotIdleTTL: 24h
    warmTTL: 168h
    coldRetention: 2160h
`)
		result, err := kconf.Unmarshal(strataYml)

		if err != nil {
			t.Fatalf("failed to parse config.: %v", err)
		}

		t.Run(".port", func(t *testing.T) {
			actual := result.Port()
			expected := int32(12345)
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%d, %d)", expected, actual)
			}
		})

		t.Run(".database", func(t *testing.T) {
			actual := result.Database()
			expected := "postgres://strata-testing:5432/strata"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".hot.redis.address", func(t *testing.T) {
			actual := result.Hot().Redis().Address()
			expected := "redis.strata-testing.svc:6379"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".hot.redis.password", func(t *testing.T) {
			actual := result.Hot().Redis().Password()
			expected := "fake-password"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".hot.redis.db", func(t *testing.T) {
			actual := result.Hot().Redis().DB()
			expected := 3
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%d, %d)", expected, actual)
			}
		})

		t.Run(".cold.bucket", func(t *testing.T) {
			actual := result.Cold().Bucket()
			expected := "strata-testing-cold"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".cold.prefix", func(t *testing.T) {
			actual := result.Cold().Prefix()
			expected := "archive/"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".sweep", func(t *testing.T) {
			sweep := result.Sweep()
			if sweep.Interval() != 90*time.Second {
				t.Errorf("interval: %s", sweep.Interval())
			}
			if sweep.OrphanInterval() != 45*time.Minute {
				t.Errorf("orphanInterval: %s", sweep.OrphanInterval())
			}
			if sweep.OrphanGrace() != 20*time.Minute {
				t.Errorf("orphanGrace: %s", sweep.OrphanGrace())
			}
			if sweep.BatchSize() != 250 {
				t.Errorf("batchSize: %d", sweep.BatchSize())
			}
			if sweep.Workers() != 4 {
				t.Errorf("workers: %d", sweep.Workers())
			}
		})

		t.Run(".policies[model-weight]", func(t *testing.T) {
			pol, ok := result.Policies().For(domain.ModelWeight)
			if !ok {
				t.Fatal("policy not found")
			}
			if pol.HotCapacityBytes != 64*(int64(1)<<30) {
				t.Errorf("hotCapacity: %d", pol.HotCapacityBytes)
			}
			if pol.HotIdleTTL != 72*time.Hour {
				t.Errorf("hotIdleTTL: %s", pol.HotIdleTTL)
			}
			if pol.WarmTTL != 720*time.Hour {
				t.Errorf("warmTTL: %s", pol.WarmTTL)
			}
			if pol.ColdRetention != 0 {
				t.Errorf("coldRetention: %s", pol.ColdRetention)
			}
		})

		t.Run(".policies[conversation-context]", func(t *testing.T) {
			pol, ok := result.Policies().For(domain.ConversationContext)
			if !ok {
				t.Fatal("policy not found")
			}
			if pol.ColdRetention != 2160*time.Hour {
				t.Errorf("coldRetention: %s", pol.ColdRetention)
			}
		})
	})

	t.Run("it defaults what the yaml leaves out: ", func(t *testing.T) {
		strataYml := []byte(`
port: 8080
database: postgres://strata-testing:5432/strata
hot:
  redis:
    address: localhost:6379
cold:
  bucket: strata-testing-cold
policies:
  generated-artifact:
    hotCapacity: 1Gi
    hotIdleTTL: 12h
    warmTTL: 72h
`)
		result, err := kconf.Unmarshal(strataYml)
		if err != nil {
			t.Fatalf("failed to parse config.: %v", err)
		}

		if result.Cold().Prefix() != "cold/" {
			t.Errorf("cold prefix: %s", result.Cold().Prefix())
		}

		sweep := result.Sweep()
		if sweep.Interval() != 5*time.Minute {
			t.Errorf("interval: %s", sweep.Interval())
		}
		if sweep.OrphanInterval() != 30*time.Minute {
			t.Errorf("orphanInterval: %s", sweep.OrphanInterval())
		}
		if sweep.OrphanGrace() != 15*time.Minute {
			t.Errorf("orphanGrace: %s", sweep.OrphanGrace())
		}
		if sweep.BatchSize() != 500 {
			t.Errorf("batchSize: %d", sweep.BatchSize())
		}
		if sweep.Workers() != 8 {
			t.Errorf("workers: %d", sweep.Workers())
		}

		if result.Hot().Redis().Password() != "" || result.Hot().Redis().DB() != 0 {
			t.Errorf("redis defaults: %+v", result.Hot().Redis())
		}
	})

	t.Run("it should panic on misconfiguration: ", func(t *testing.T) {
		theory := func(name string, yml string) {
			t.Run(name, func(t *testing.T) {
				defer func() {
					if recover() == nil {
						t.Error("no panic")
					}
				}()
				kconf.Unmarshal([]byte(yml))
			})
		}

		theory("missing database", `
port: 8080
hot:
  redis:
    address: localhost:6379
cold:
  bucket: b
policies:
  model-weight: {hotCapacity: 1Gi, hotIdleTTL: 1h, warmTTL: 2h}
`)

		theory("missing policies", `
port: 8080
database: postgres://x/y
hot:
  redis:
    address: localhost:6379
cold:
  bucket: b
`)

		theory("unknown entity type", `
port: 8080
database: postgres://x/y
hot:
  redis:
    address: localhost:6379
cold:
  bucket: b
policies:
  checkpoint: {hotCapacity: 1Gi, hotIdleTTL: 1h, warmTTL: 2h}
`)

		theory("malformed capacity", `
port: 8080
database: postgres://x/y
hot:
  redis:
    address: localhost:6379
cold:
  bucket: b
policies:
  model-weight: {hotCapacity: lots, hotIdleTTL: 1h, warmTTL: 2h}
`)

		theory("malformed duration", `
port: 8080
database: postgres://x/y
hot:
  redis:
    address: localhost:6379
cold:
  bucket: b
policies:
  model-weight: {hotCapacity: 1Gi, hotIdleTTL: soon, warmTTL: 2h}
`)
	})
}
