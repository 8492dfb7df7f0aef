package store

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateID means a keyword id collided with a stored one. Callers
	// regenerate ids and retry.
	ErrDuplicateID = errors.New("keyword id already exists")

	// ErrStorage wraps connectivity and constraint failures of the backend.
	ErrStorage = errors.New("keyword storage failure")

	// ErrInvalidKeyword rejects records that can never be stored.
	ErrInvalidKeyword = errors.New("invalid keyword record")
)

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
