// Package engine implements the per-account state machine: deposit,
// withdraw, dispute, resolve, chargeback and the read operations, each
// applied atomically against the storage contract in package storage.
package engine

import (
	"context"
	"errors"
	"fmt"

	"ledgerengine/internal/events"
	"ledgerengine/internal/ledger"
	"ledgerengine/internal/logging"
	"ledgerengine/internal/money"
	"ledgerengine/internal/storage"
)

// Engine is a value that may be freely shared across goroutines: it holds
// only a storage handle (itself shareable) and stateless collaborators. No
// method requires exclusive access to the Engine.
type Engine struct {
	store     storage.Store
	publisher events.Publisher
	logger    *logging.Logger
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithPublisher wires an event publisher; committed operations publish a
// best-effort event after they commit. Omit this option (or pass
// events.NoOp{}) to disable event publishing entirely.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithLogger wires a logger for publish-failure diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New builds an Engine over the given storage backend.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{store: store, publisher: events.NoOp{}, logger: logging.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func wrapConflict(err error) error {
	if errors.Is(err, storage.ErrConflict) {
		return ErrConcurrentOperationDetected
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

// Deposit credits amount to client_id under tx_id, materialising the
// account on first use. Replaying an identical (client_id, tx_id, amount)
// deposit is a no-op success; replaying tx_id with different parameters is
// DuplicateTransactionId.
func (e *Engine) Deposit(ctx context.Context, clientID uint16, txID uint32, amount money.Money) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount must be positive", ErrInvalidAmount)
	}

	wtx, err := e.store.Begin(ctx, storage.Write)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer wtx.Rollback(ctx)

	existing, found, err := wtx.GetTx(ctx, txID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if found {
		if existing.ClientID == clientID && existing.Kind == ledger.Deposit && existing.Amount.Equal(amount) {
			return nil // idempotent replay
		}
		return fmt.Errorf("%w: tx %d already recorded", ErrDuplicateTransactionId, txID)
	}

	account, accFound, err := wtx.GetAccount(ctx, clientID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !accFound {
		account = ledger.ZeroAccount(clientID)
	}
	if account.Locked {
		return fmt.Errorf("%w: client %d", ErrAccountLocked, clientID)
	}

	newAvailable, err := account.Available.Add(amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNumeric, err)
	}
	account.Available = newAvailable

	if err := wtx.PutTx(ctx, txID, ledger.TxRecord{ClientID: clientID, Kind: ledger.Deposit, Amount: amount}); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := wtx.PutAccount(ctx, account); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := wtx.Commit(ctx); err != nil {
		return wrapConflict(err)
	}

	e.publish(ctx, events.Event{Kind: events.DepositCompleted, ClientID: clientID, TxID: txID, Amount: amount, Available: account.Available, Held: account.Held, Locked: account.Locked})
	return nil
}

// Withdraw debits amount from client_id under tx_id. The account must
// already exist and have sufficient available funds.
func (e *Engine) Withdraw(ctx context.Context, clientID uint16, txID uint32, amount money.Money) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: withdrawal amount must be positive", ErrInvalidAmount)
	}

	wtx, err := e.store.Begin(ctx, storage.Write)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer wtx.Rollback(ctx)

	existing, found, err := wtx.GetTx(ctx, txID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if found {
		if existing.ClientID == clientID && existing.Kind == ledger.Withdrawal && existing.Amount.Equal(amount) {
			return nil
		}
		return fmt.Errorf("%w: tx %d already recorded", ErrDuplicateTransactionId, txID)
	}

	account, accFound, err := wtx.GetAccount(ctx, clientID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !accFound {
		return fmt.Errorf("%w: client %d", ErrAccountNotFound, clientID)
	}
	if account.Locked {
		return fmt.Errorf("%w: client %d", ErrAccountLocked, clientID)
	}
	if account.Available.LessThan(amount) {
		return fmt.Errorf("%w: client %d", ErrInsufficientFunds, clientID)
	}

	newAvailable, err := account.Available.Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNumeric, err)
	}
	account.Available = newAvailable

	if err := wtx.PutTx(ctx, txID, ledger.TxRecord{ClientID: clientID, Kind: ledger.Withdrawal, Amount: amount}); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := wtx.PutAccount(ctx, account); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := wtx.Commit(ctx); err != nil {
		return wrapConflict(err)
	}

	e.publish(ctx, events.Event{Kind: events.WithdrawalCompleted, ClientID: clientID, TxID: txID, Amount: amount, Available: account.Available, Held: account.Held, Locked: account.Locked})
	return nil
}

// lookupReferencedTx loads the TxRecord for dispute/resolve/chargeback and
// validates the client_id matches. Shared by all three transitions.
func (e *Engine) lookupReferencedTx(ctx context.Context, wtx storage.Tx, clientID uint16, txID uint32) (ledger.TxRecord, error) {
	rec, found, err := wtx.GetTx(ctx, txID)
	if err != nil {
		return ledger.TxRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !found {
		return ledger.TxRecord{}, fmt.Errorf("%w: tx %d", ErrTxNotFound, txID)
	}
	if rec.ClientID != clientID {
		return ledger.TxRecord{}, fmt.Errorf("%w: tx %d belongs to client %d, not %d", ErrTxClientMismatch, txID, rec.ClientID, clientID)
	}
	return rec, nil
}

// Dispute opens a dispute against a previously-recorded deposit, moving its
// amount from available to held. Disputing a withdrawal is rejected:
// withdrawals are not disputable under this model.
func (e *Engine) Dispute(ctx context.Context, clientID uint16, txID uint32) error {
	wtx, err := e.store.Begin(ctx, storage.Write)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer wtx.Rollback(ctx)

	rec, err := e.lookupReferencedTx(ctx, wtx, clientID, txID)
	if err != nil {
		return err
	}
	if rec.Kind != ledger.Deposit {
		return fmt.Errorf("%w: tx %d is a %s", ErrNotDisputable, txID, rec.Kind)
	}
	switch rec.DisputeState {
	case ledger.Disputed:
		return fmt.Errorf("%w: tx %d", ErrAlreadyDisputed, txID)
	case ledger.ChargedBack:
		return fmt.Errorf("%w: tx %d", ErrChargedBackTerminal, txID)
	}

	account, accFound, err := wtx.GetAccount(ctx, clientID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !accFound {
		return fmt.Errorf("%w: client %d", ErrAccountNotFound, clientID)
	}

	newAvailable, err := account.Available.Sub(rec.Amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNumeric, err)
	}
	newHeld, err := account.Held.Add(rec.Amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNumeric, err)
	}
	account.Available = newAvailable
	account.Held = newHeld
	rec.DisputeState = ledger.Disputed

	if err := wtx.PutTx(ctx, txID, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := wtx.PutAccount(ctx, account); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := wtx.Commit(ctx); err != nil {
		return wrapConflict(err)
	}

	e.publish(ctx, events.Event{Kind: events.DisputeOpened, ClientID: clientID, TxID: txID, Amount: rec.Amount, Available: account.Available, Held: account.Held, Locked: account.Locked})
	return nil
}

// Resolve reverses an open dispute, restoring the amount to available.
func (e *Engine) Resolve(ctx context.Context, clientID uint16, txID uint32) error {
	wtx, err := e.store.Begin(ctx, storage.Write)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer wtx.Rollback(ctx)

	rec, err := e.lookupReferencedTx(ctx, wtx, clientID, txID)
	if err != nil {
		return err
	}
	if rec.DisputeState != ledger.Disputed {
		return fmt.Errorf("%w: tx %d", ErrNotDisputed, txID)
	}

	account, accFound, err := wtx.GetAccount(ctx, clientID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !accFound {
		return fmt.Errorf("%w: client %d", ErrAccountNotFound, clientID)
	}

	newAvailable, err := account.Available.Add(rec.Amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNumeric, err)
	}
	newHeld, err := account.Held.Sub(rec.Amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNumeric, err)
	}
	account.Available = newAvailable
	account.Held = newHeld
	rec.DisputeState = ledger.NoDispute

	if err := wtx.PutTx(ctx, txID, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := wtx.PutAccount(ctx, account); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := wtx.Commit(ctx); err != nil {
		return wrapConflict(err)
	}

	e.publish(ctx, events.Event{Kind: events.DisputeResolved, ClientID: clientID, TxID: txID, Amount: rec.Amount, Available: account.Available, Held: account.Held, Locked: account.Locked})
	return nil
}

// Chargeback terminally settles an open dispute: held funds are removed and
// the account is locked against further deposits/withdrawals.
func (e *Engine) Chargeback(ctx context.Context, clientID uint16, txID uint32) error {
	wtx, err := e.store.Begin(ctx, storage.Write)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer wtx.Rollback(ctx)

	rec, err := e.lookupReferencedTx(ctx, wtx, clientID, txID)
	if err != nil {
		return err
	}
	if rec.DisputeState != ledger.Disputed {
		return fmt.Errorf("%w: tx %d", ErrNotDisputed, txID)
	}

	account, accFound, err := wtx.GetAccount(ctx, clientID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !accFound {
		return fmt.Errorf("%w: client %d", ErrAccountNotFound, clientID)
	}

	newHeld, err := account.Held.Sub(rec.Amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNumeric, err)
	}
	account.Held = newHeld
	account.Locked = true
	rec.DisputeState = ledger.ChargedBack

	if err := wtx.PutTx(ctx, txID, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := wtx.PutAccount(ctx, account); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := wtx.Commit(ctx); err != nil {
		return wrapConflict(err)
	}

	e.publish(ctx, events.Event{Kind: events.ChargedBack, ClientID: clientID, TxID: txID, Amount: rec.Amount, Available: account.Available, Held: account.Held, Locked: account.Locked})
	return nil
}

// GetAccount reads the committed state for a client. It never observes a
// transaction in mid-flight: the read goes through the same storage
// contract as every write.
func (e *Engine) GetAccount(ctx context.Context, clientID uint16) (*ledger.Account, error) {
	rtx, err := e.store.Begin(ctx, storage.Read)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer rtx.Rollback(ctx)

	acc, found, err := rtx.GetAccount(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !found {
		return nil, nil
	}
	return &acc, nil
}

// Accounts returns a lazy sequence of every account known to storage, with
// the snapshot behaviour of the backend's Accounts. Ordering is unspecified.
func (e *Engine) Accounts(ctx context.Context) (<-chan ledger.Account, error) {
	return e.store.Accounts(ctx)
}

func (e *Engine) publish(ctx context.Context, evt events.Event) {
	if err := e.publisher.Publish(ctx, evt); err != nil {
		e.logger.Warn("failed to publish ledger event", map[string]interface{}{
			"kind":      evt.Kind,
			"client_id": evt.ClientID,
			"tx_id":     evt.TxID,
			"error":     err.Error(),
		})
	}
}
