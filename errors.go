package stagedb

import (
	"fmt"

	"stagedb/internal/schema"
	"stagedb/internal/staging"
)

// ConnectionError reports a store that cannot be reached. Fatal; surfaced
// from Open immediately.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// The staging and schema error types surface unchanged through the public
// API; the aliases give callers names to match with errors.As.
type (
	// SchemaError lists every canonical table missing at initialization.
	SchemaError = schema.SchemaError
	// IntegrityError reports one rejected item from a staged batch.
	IntegrityError = staging.IntegrityError
	// CommitError wraps a failed physical merge; staging state is preserved
	// and the commit is retryable.
	CommitError = staging.CommitError
	// UsageError reports commit or rollback on a clean session.
	UsageError = staging.UsageError
)
