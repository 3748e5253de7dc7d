package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnknownDefectCode is returned when a report references a defect code
// that is not present in the local dictionary.
var ErrUnknownDefectCode = errors.New("unknown defect code")
