package staging

import (
	"fmt"

	"stagedb/internal/schema"
)

// IntegrityError reports one rejected item from a staging batch. In
// non-strict mode these are collected and returned as data so bulk callers
// can report partial success; in strict mode the first one aborts the batch.
type IntegrityError struct {
	Table  schema.Table
	Field  string
	Reason string
}

func (e *IntegrityError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("integrity: %s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("integrity: %s.%s: %s", e.Table, e.Field, e.Reason)
}

// CommitError wraps a failure during the physical merge. The physical
// transaction has been rolled back and the staging area is unchanged, so the
// commit is retryable.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string { return fmt.Sprintf("commit: %v", e.Err) }
func (e *CommitError) Unwrap() error { return e.Err }

// UsageError reports commit or rollback called on a clean session.
type UsageError struct {
	Op string
}

func (e *UsageError) Error() string { return fmt.Sprintf("nothing to %s", e.Op) }
