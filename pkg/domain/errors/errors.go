package errors

import "errors"

// Requested entity, record or payload does not exist.
var ErrMissing = errors.New("missing")

// An entity with the same id is already registered.
var ErrAlreadyExists = errors.New("already exists")

// The placement record changed since it was read.
// This is a benign race: the losing side abandons its move.
var ErrVersionConflict = errors.New("version conflict")

// A backing store could not be reached or refused the operation.
var ErrUnavailable = errors.New("backend unavailable")

// The placement record and the backing stores disagree about where the
// payload is. This is never repaired automatically; an operator has to look.
var ErrInconsistent = errors.New("placement inconsistent")
