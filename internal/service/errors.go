package service

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// notFound rewrites a missing-row error from storage as ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// ErrTransferBusy is returned when an export or import of the same target is
// already running.
var ErrTransferBusy = errors.New("transfer already running")
