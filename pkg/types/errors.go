package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the project store and its tasks. Callers classify
// failures with errors.Is; layers add context with fmt.Errorf and %w.
var (
	ErrInvalidProjectStore = errors.New("file is not a valid project store")
	ErrUnknownMigration    = errors.New("project store was created by a newer release")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateLabel      = errors.New("display label already in use")
	ErrDuplicatePath       = errors.New("attachment path already in use")
	ErrUnknownUnit         = errors.New("unknown unit")
	ErrMissingCredential   = errors.New("climate engine API key is not configured")
	ErrCancelled           = errors.New("task cancelled")
)

// MigrationError reports the migration that failed. The engine stops at the
// first failure, so ID always names the offending migration.
type MigrationError struct {
	ID  string
	Err error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s failed: %v", e.ID, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// RemoteError is returned for non-2xx responses from the climate service.
type RemoteError struct {
	StatusCode int
	URL        string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote service returned HTTP %d for %s", e.StatusCode, e.URL)
}
