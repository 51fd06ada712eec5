package database

import "errors"

// ErrNotFound indicates a requested record does not exist.
var ErrNotFound = errors.New("database: not found")

// ErrAmbiguous indicates a run ID prefix matched more than one run.
var ErrAmbiguous = errors.New("database: ambiguous run id")
