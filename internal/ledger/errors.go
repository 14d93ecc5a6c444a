package ledger

import (
	"errors"
	"fmt"
)

// ErrStepNotFound is returned by GetStep when no record exists for the name.
var ErrStepNotFound = errors.New("step has not been recorded")

// ErrLedgerBusy is returned by Open under the NoWait policy when another
// invocation holds the project lock. The caller may retry once the lock
// clears.
var ErrLedgerBusy = errors.New("ledger is locked by another invocation")

// CorruptLedgerError reports a ledger file that cannot be used. This is
// fatal for the project until the file is manually repaired; no automatic
// recovery or schema upgrade is attempted.
type CorruptLedgerError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CorruptLedgerError) Error() string {
	return fmt.Sprintf("corrupt ledger %s: %s", e.Path, e.Reason)
}

func (e *CorruptLedgerError) Unwrap() error { return e.Err }

// DuplicateStepConflictError reports that the on-disk ledger gained a newer
// record for the step this session was about to write, meaning a concurrent
// invocation won the race for the same step name.
type DuplicateStepConflictError struct {
	Step string
}

func (e *DuplicateStepConflictError) Error() string {
	return fmt.Sprintf("step %q was concurrently recorded by another invocation", e.Step)
}
