package strata

import (
	"context"
	"log"

	gstorage "cloud.google.com/go/storage"
	"github.com/gomodule/redigo/redis"
	rpool "github.com/strataml/strata/pkg/conn/redis/pool"
	kconf "github.com/strataml/strata/pkg/configs/strata"
	"github.com/strataml/strata/pkg/domain/backend"
	gcsbe "github.com/strataml/strata/pkg/domain/backend/gcs"
	redisbe "github.com/strataml/strata/pkg/domain/backend/redis"
	"github.com/strataml/strata/pkg/domain/executor"
	"github.com/strataml/strata/pkg/domain/gateway"
	"github.com/strataml/strata/pkg/domain/metrics"
	"github.com/strataml/strata/pkg/domain/schema"
	dbInterface "github.com/strataml/strata/pkg/domain/strata/db"
	dbpg "github.com/strataml/strata/pkg/domain/strata/db/postgres"
	xe "github.com/strataml/strata/pkg/errors"
)

// Strata bundles every domain component a process needs, built once from
// config at boot.
type Strata interface {
	Config() *kconf.StrataConfig

	Database() dbInterface.StrataDatabase
	Stores() backend.Registry
	Executor() executor.Interface
	Gateway() gateway.Interface
	Metrics() *metrics.Registry
	Schema() schema.Interface

	Close() error
}

type strata struct {
	config *kconf.StrataConfig

	database dbInterface.StrataDatabase
	redis    *redis.Pool
	gcs      *gstorage.Client

	stores  backend.Registry
	exec    executor.Interface
	gateway gateway.Interface
	metrics *metrics.Registry
	schema  schema.Interface
}

type Option func(*_options)

type _options struct {
	pg     []dbpg.Option
	logger *log.Logger
}

// WithoutMigration leaves schema management to the API server process.
func WithoutMigration() Option {
	return func(o *_options) {
		o.pg = append(o.pg, dbpg.WithoutMigration())
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(o *_options) {
		o.logger = logger
	}
}

func New(
	ctx context.Context,
	config *kconf.StrataConfig,
	options ...Option,
) (Strata, error) {
	opt := &_options{logger: log.Default()}
	for _, o := range options {
		o(opt)
	}

	database, err := dbpg.New(ctx, config.Database(), opt.pg...)
	if err != nil {
		return nil, err
	}

	redisPool := rpool.New(rpool.Config{
		Address:  config.Hot().Redis().Address(),
		Password: config.Hot().Redis().Password(),
		DB:       config.Hot().Redis().DB(),
	})

	gcsClient, err := gstorage.NewClient(ctx)
	if err != nil {
		database.Close()
		redisPool.Close()
		return nil, xe.Wrap(err)
	}

	stores := backend.NewRegistry(
		redisbe.New(redisPool),
		database.Warm(),
		gcsbe.New(
			gcsbe.Wrap(gcsClient.Bucket(config.Cold().Bucket())),
			gcsbe.WithPrefix(config.Cold().Prefix()),
		),
	)

	meter := metrics.NewRegistry()
	exec := executor.New(
		database.Tracker(), stores, meter,
		executor.WithLogger(opt.logger),
	)

	return &strata{
		config:   config,
		database: database,
		redis:    redisPool,
		gcs:      gcsClient,
		stores:   stores,
		exec:     exec,
		gateway: gateway.New(
			database.Tracker(), stores, exec, meter,
			gateway.WithLogger(opt.logger),
		),
		metrics: meter,
		schema:  schema.New(database.Schema()),
	}, nil
}

func (s *strata) Config() *kconf.StrataConfig {
	return s.config
}

func (s *strata) Database() dbInterface.StrataDatabase {
	return s.database
}

func (s *strata) Stores() backend.Registry {
	return s.stores
}

func (s *strata) Executor() executor.Interface {
	return s.exec
}

func (s *strata) Gateway() gateway.Interface {
	return s.gateway
}

func (s *strata) Metrics() *metrics.Registry {
	return s.metrics
}

func (s *strata) Schema() schema.Interface {
	return s.schema
}

func (s *strata) Close() error {
	err := s.database.Close()
	if rerr := s.redis.Close(); err == nil {
		err = rerr
	}
	if gerr := s.gcs.Close(); err == nil {
		err = gerr
	}
	return err
}
