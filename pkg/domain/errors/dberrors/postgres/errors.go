package postgres

import (
	"fmt"

	domerr "github.com/strataml/strata/pkg/domain/errors"
)

// requested record is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s ", m.Identity, m.Table)
}
func (m Missing) Unwrap() error {
	return domerr.ErrMissing
}

// a record with the same identity is already there.
type Duplication struct {
	Table    string
	Identity string
}

var _ error = Duplication{}

func (d Duplication) Error() string {
	return fmt.Sprintf("%s already exists in %s", d.Identity, d.Table)
}

func (d Duplication) Unwrap() error {
	return domerr.ErrAlreadyExists
}

// the record's version is not the one the caller saw.
type StaleVersion struct {
	Table    string
	Identity string
	Expected int64
}

var _ error = StaleVersion{}

func (s StaleVersion) Error() string {
	return fmt.Sprintf(
		"%s in %s is not at version %d anymore",
		s.Identity, s.Table, s.Expected,
	)
}

func (s StaleVersion) Unwrap() error {
	return domerr.ErrVersionConflict
}
