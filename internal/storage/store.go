// Package storage defines the abstract transactional key-value contract the
// engine is built against (see component 4 of the design). Two tables are
// addressed: accounts keyed by client id, and transaction records keyed by
// transaction id. Concrete backends live in the memstore and pgstore
// subpackages.
package storage

import (
	"context"
	"errors"

	"ledgerengine/internal/ledger"
)

// Mode selects the isolation a transaction needs. Read transactions are
// cheap, consistent snapshots; Write transactions may fail at Commit with
// ErrConflict if their read set was invalidated by a concurrently committed
// transaction.
type Mode int

const (
	Read Mode = iota
	Write
)

// ErrConflict is returned by Commit when a key this transaction read or
// wrote was modified by another transaction that committed first. The
// engine surfaces this as ConcurrentOperationDetected; it never retries
// internally.
var ErrConflict = errors.New("storage: conflict")

// ErrReadOnly is returned by Put* on a transaction opened with Read mode.
var ErrReadOnly = errors.New("storage: write on read-only transaction")

// Store is the handle the engine holds. It may be freely shared across
// goroutines; Begin itself never blocks on other transactions.
type Store interface {
	// Begin opens a new transaction. The caller must Commit or Rollback it;
	// letting it go out of scope without either is a caller bug, not a
	// backend-detectable condition (see backend docs for cleanup behavior).
	Begin(ctx context.Context, mode Mode) (Tx, error)

	// Accounts returns a lazy sequence of every known account, each as of
	// some committed state. Ordering is unspecified, and whether the whole
	// sequence reflects one point in time depends on the backend (see each
	// backend's Accounts). The channel is closed when the sequence is
	// exhausted or ctx is cancelled.
	Accounts(ctx context.Context) (<-chan ledger.Account, error)
}

// Tx is a single read/write unit of atomicity scoped to at most one
// client_id and at most one tx_id, matching how every engine operation
// touches storage.
type Tx interface {
	GetAccount(ctx context.Context, clientID uint16) (ledger.Account, bool, error)
	PutAccount(ctx context.Context, acc ledger.Account) error

	GetTx(ctx context.Context, txID uint32) (ledger.TxRecord, bool, error)
	PutTx(ctx context.Context, txID uint32, rec ledger.TxRecord) error

	// Commit validates that every key this transaction observed is still at
	// the version it was observed at, then atomically applies all writes.
	// On ErrConflict, storage is left unchanged.
	Commit(ctx context.Context) error

	// Rollback discards any buffered writes. Safe to call after Commit has
	// already succeeded or failed (no-op in both cases).
	Rollback(ctx context.Context) error
}
