package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ledgerengine/internal/ledger"
	"ledgerengine/internal/storage"
)

// serializationFailure and deadlockDetected are the SQLSTATEs Postgres
// reports when a Serializable transaction's commit is rejected because its
// read/write set conflicted with a concurrently-committed transaction.
const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

type tx struct {
	pgxTx pgx.Tx
	mode  storage.Mode
}

func (t *tx) GetAccount(ctx context.Context, clientID uint16) (ledger.Account, bool, error) {
	row := t.pgxTx.QueryRow(ctx, `
		SELECT client_id, available::text, held::text, locked
		FROM accounts WHERE client_id = $1
	`, clientID)

	acc, err := scanAccount(row)
	if err != nil {
		if isNoRows(err) {
			return ledger.Account{}, false, nil
		}
		return ledger.Account{}, false, err
	}
	return acc, true, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func (t *tx) PutAccount(ctx context.Context, acc ledger.Account) error {
	if t.mode == storage.Read {
		return storage.ErrReadOnly
	}
	_, err := t.pgxTx.Exec(ctx, `
		INSERT INTO accounts (client_id, available, held, locked)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id) DO UPDATE
		SET available = EXCLUDED.available, held = EXCLUDED.held, locked = EXCLUDED.locked
	`, acc.ClientID, acc.Available.String(), acc.Held.String(), acc.Locked)
	if err != nil {
		return fmt.Errorf("pgstore: put account: %w", err)
	}
	return nil
}

func (t *tx) GetTx(ctx context.Context, txID uint32) (ledger.TxRecord, bool, error) {
	row := t.pgxTx.QueryRow(ctx, `
		SELECT tx_id, client_id, kind, amount::text, dispute_state
		FROM tx_records WHERE tx_id = $1
	`, txID)

	_, rec, err := scanTxRecord(row)
	if err != nil {
		if isNoRows(err) {
			return ledger.TxRecord{}, false, nil
		}
		return ledger.TxRecord{}, false, err
	}
	return rec, true, nil
}

func (t *tx) PutTx(ctx context.Context, txID uint32, rec ledger.TxRecord) error {
	if t.mode == storage.Read {
		return storage.ErrReadOnly
	}
	_, err := t.pgxTx.Exec(ctx, `
		INSERT INTO tx_records (tx_id, client_id, kind, amount, dispute_state)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tx_id) DO UPDATE
		SET dispute_state = EXCLUDED.dispute_state
	`, txID, rec.ClientID, rec.Kind.String(), rec.Amount.String(), rec.DisputeState.String())
	if err != nil {
		return fmt.Errorf("pgstore: put tx: %w", err)
	}
	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	err := t.pgxTx.Commit(ctx)
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == serializationFailure || pgErr.Code == deadlockDetected) {
		return storage.ErrConflict
	}
	return fmt.Errorf("pgstore: commit: %w", err)
}

func (t *tx) Rollback(ctx context.Context) error {
	err := t.pgxTx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("pgstore: rollback: %w", err)
	}
	return nil
}
