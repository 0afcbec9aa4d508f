package database

import "errors"

var (
	// ErrNilSnapshot is returned when Save is called without a snapshot.
	ErrNilSnapshot = errors.New("snapshot is nil")

	// ErrMissingHostname is returned when a snapshot has no hostname to key it by.
	ErrMissingHostname = errors.New("snapshot has no hostname")

	// ErrDatabaseNotFound is returned by Open when the database does not exist
	// and creation was not requested.
	ErrDatabaseNotFound = errors.New("database not found")
)
