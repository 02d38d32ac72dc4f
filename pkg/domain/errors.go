package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a reference to an entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedFormat reports an import or export format that is not handled.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrImport wraps every spreadsheet parse failure.
	ErrImport = errors.New("import failed")
)

// NotFoundError names the missing entity. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) succeed.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
