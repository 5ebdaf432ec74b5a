package db

import (
	"github.com/strataml/strata/pkg/domain/backend"
	kschema "github.com/strataml/strata/pkg/domain/schema/db"
	sweepdb "github.com/strataml/strata/pkg/domain/sweeps/db"
	trackdb "github.com/strataml/strata/pkg/domain/tracker/db"
)

type StrataDatabase interface {
	Tracker() trackdb.Interface
	Sweeps() sweepdb.Interface
	Schema() kschema.SchemaInterface

	// Warm is the warm tier payload store, kept in the same database
	// as the placement records.
	Warm() backend.Store

	Close() error
}
