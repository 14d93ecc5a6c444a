package ledger

import (
	"fmt"

	"github.com/gofrs/flock"
)

// WaitPolicy controls what Open does when another invocation holds the
// project lock.
type WaitPolicy int

const (
	// Wait blocks until the lock is free. This is the default: a user
	// running two steps from separate terminals gets serialization, not an
	// error.
	Wait WaitPolicy = iota

	// NoWait fails fast with ErrLedgerBusy.
	NoWait
)

// Session is an exclusive hold on a project's ledger for one
// read-validate-write sequence. The advisory flock spans processes; two
// invocations against the same project directory serialize through it.
// Close must run on every exit path, success or failure.
type Session struct {
	led  *Ledger
	lock *flock.Flock
}

// Open acquires the project lock according to the wait policy, then loads
// the ledger file. The lock is released again if loading fails.
func Open(ledgerPath, lockPath string, policy WaitPolicy) (*Session, error) {
	fl := flock.New(lockPath)
	switch policy {
	case NoWait:
		ok, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire ledger lock %q: %w", lockPath, err)
		}
		if !ok {
			return nil, ErrLedgerBusy
		}
	default:
		if err := fl.Lock(); err != nil {
			return nil, fmt.Errorf("failed to acquire ledger lock %q: %w", lockPath, err)
		}
	}

	led, err := load(ledgerPath)
	if err != nil {
		fl.Unlock()
		return nil, err
	}
	return &Session{led: led, lock: fl}, nil
}

// Ledger returns the loaded ledger. Valid until Close.
func (s *Session) Ledger() *Ledger { return s.led }

// Close releases the project lock.
func (s *Session) Close() error {
	return s.lock.Unlock()
}
