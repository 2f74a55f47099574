package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyKey     = errors.New("empty key")
	ErrInvalidData  = errors.New("invalid data type")
	ErrEntityExists = errors.New("entity already exists")

	// ErrInvalidConfig is returned for hyperparameters rejected at startup.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrResume is returned when a requested checkpoint is missing or unreadable.
	ErrResume = errors.New("cannot resume from checkpoint")

	// ErrNonFinite is returned when a loss or gradient is NaN or infinite.
	ErrNonFinite = errors.New("non-finite value")

	// ErrPersistence is returned when a checkpoint cannot be written durably.
	ErrPersistence = errors.New("checkpoint persistence failed")
)
