package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	kpool "github.com/strataml/strata/pkg/conn/db/postgres/pool"
	"github.com/strataml/strata/pkg/domain/backend"
	warmpg "github.com/strataml/strata/pkg/domain/backend/postgres"
	kschema "github.com/strataml/strata/pkg/domain/schema/db"
	kpgschema "github.com/strataml/strata/pkg/domain/schema/db/postgres"
	dbInterface "github.com/strataml/strata/pkg/domain/strata/db"
	sweepdb "github.com/strataml/strata/pkg/domain/sweeps/db"
	kpgsweeps "github.com/strataml/strata/pkg/domain/sweeps/db/postgres"
	trackdb "github.com/strataml/strata/pkg/domain/tracker/db"
	kpgtrack "github.com/strataml/strata/pkg/domain/tracker/db/postgres"
	xe "github.com/strataml/strata/pkg/errors"
)

type strataDBPostgres struct {
	pool    *pgxpool.Pool
	tracker trackdb.Interface
	sweeps  sweepdb.Interface
	schema  kschema.SchemaInterface
	warm    backend.Store
}

type Config struct {
	Migrate bool
}

func DefaultConfig() Config {
	return Config{Migrate: true}
}

type Option func(*Config) *Config

// WithoutMigration gives out a Null schema manager. For processes which
// leave schema management to the API server.
func WithoutMigration() Option {
	return func(c *Config) *Config {
		c.Migrate = false
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (dbInterface.StrataDatabase, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	c := DefaultConfig()
	for _, option := range options {
		c = *option(&c)
	}

	p := kpool.Wrap(pool)
	var schema kschema.SchemaInterface = kpgschema.Null()
	if c.Migrate {
		schema = kpgschema.New(p)
	}

	return &strataDBPostgres{
		pool:    pool,
		tracker: kpgtrack.New(p),
		sweeps:  kpgsweeps.New(p),
		schema:  schema,
		warm:    warmpg.New(p),
	}, nil
}

func (s *strataDBPostgres) Tracker() trackdb.Interface {
	return s.tracker
}

func (s *strataDBPostgres) Sweeps() sweepdb.Interface {
	return s.sweeps
}

func (s *strataDBPostgres) Schema() kschema.SchemaInterface {
	return s.schema
}

func (s *strataDBPostgres) Warm() backend.Store {
	return s.warm
}

func (s *strataDBPostgres) Close() error {
	s.pool.Close()
	return nil
}
