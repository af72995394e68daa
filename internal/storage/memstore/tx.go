package memstore

import (
	"context"
	"errors"
	"fmt"

	"ledgerengine/internal/ledger"
	"ledgerengine/internal/storage"
)

// tx buffers writes locally and never touches store state until Commit,
// so Rollback (or simply abandoning the transaction) never needs to undo
// anything.
type tx struct {
	store *Store
	mode  storage.Mode
	done  bool

	touchedAccount   bool
	clientID         uint16
	accountBaseline  uint64
	accountExisted   bool
	pendingAccount   *ledger.Account

	touchedTx  bool
	txID       uint32
	txBaseline uint64
	txExisted  bool
	pendingTx  *ledger.TxRecord
}

func (t *tx) GetAccount(ctx context.Context, clientID uint16) (ledger.Account, bool, error) {
	if t.done {
		return ledger.Account{}, false, errors.New("memstore: transaction already closed")
	}
	if t.touchedAccount && t.clientID != clientID {
		return ledger.Account{}, false, fmt.Errorf("memstore: transaction already scoped to client %d, cannot touch %d", t.clientID, clientID)
	}

	if t.touchedAccount && t.pendingAccount != nil {
		return *t.pendingAccount, true, nil
	}

	shard := t.store.accountShardFor(clientID)
	shard.mu.Lock()
	row := shard.rows[clientID]
	shard.mu.Unlock()

	t.touchedAccount = true
	t.clientID = clientID
	t.accountBaseline = row.version
	t.accountExisted = row.exists

	if !row.exists {
		return ledger.Account{}, false, nil
	}
	return row.value, true, nil
}

func (t *tx) PutAccount(ctx context.Context, acc ledger.Account) error {
	if t.mode == storage.Read {
		return storage.ErrReadOnly
	}
	if t.done {
		return errors.New("memstore: transaction already closed")
	}
	if t.touchedAccount && t.clientID != acc.ClientID {
		return fmt.Errorf("memstore: transaction already scoped to client %d, cannot write %d", t.clientID, acc.ClientID)
	}
	if !t.touchedAccount {
		// Allow a write-without-prior-read for callers that know the key is
		// new; baseline of "did not exist" is still enforced at commit.
		t.touchedAccount = true
		t.clientID = acc.ClientID
	}
	acc.ClientID = t.clientID
	t.pendingAccount = &acc
	return nil
}

func (t *tx) GetTx(ctx context.Context, txID uint32) (ledger.TxRecord, bool, error) {
	if t.done {
		return ledger.TxRecord{}, false, errors.New("memstore: transaction already closed")
	}
	if t.touchedTx && t.txID != txID {
		return ledger.TxRecord{}, false, fmt.Errorf("memstore: transaction already scoped to tx %d, cannot touch %d", t.txID, txID)
	}

	if t.touchedTx && t.pendingTx != nil {
		return *t.pendingTx, true, nil
	}

	shard := t.store.txShardFor(txID)
	shard.mu.Lock()
	row := shard.rows[txID]
	shard.mu.Unlock()

	t.touchedTx = true
	t.txID = txID
	t.txBaseline = row.version
	t.txExisted = row.exists

	if !row.exists {
		return ledger.TxRecord{}, false, nil
	}
	return row.value, true, nil
}

func (t *tx) PutTx(ctx context.Context, txID uint32, rec ledger.TxRecord) error {
	if t.mode == storage.Read {
		return storage.ErrReadOnly
	}
	if t.done {
		return errors.New("memstore: transaction already closed")
	}
	if t.touchedTx && t.txID != txID {
		return fmt.Errorf("memstore: transaction already scoped to tx %d, cannot write %d", t.txID, txID)
	}
	if !t.touchedTx {
		t.touchedTx = true
		t.txID = txID
	}
	t.pendingTx = &rec
	return nil
}

// Commit locks the account shard (if touched) then the tx shard (if
// touched) — always in that order — verifies both baselines still hold,
// applies the writes, and releases the locks. Every engine operation
// acquires at most these two shards, and always in this order, so no two
// concurrent transactions can deadlock against each other.
func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("memstore: transaction already closed")
	}
	t.done = true

	var accShard *accountShard
	var txShardPtr *txShard

	if t.touchedAccount {
		accShard = t.store.accountShardFor(t.clientID)
		accShard.mu.Lock()
		defer accShard.mu.Unlock()
	}
	if t.touchedTx {
		txShardPtr = t.store.txShardFor(t.txID)
		txShardPtr.mu.Lock()
		defer txShardPtr.mu.Unlock()
	}

	if t.touchedAccount {
		current := accShard.rows[t.clientID]
		if current.exists != t.accountExisted || current.version != t.accountBaseline {
			return storage.ErrConflict
		}
	}
	if t.touchedTx {
		current := txShardPtr.rows[t.txID]
		if current.exists != t.txExisted || current.version != t.txBaseline {
			return storage.ErrConflict
		}
	}

	if t.touchedAccount && t.pendingAccount != nil {
		accShard.rows[t.clientID] = accountRow{
			exists:  true,
			version: t.accountBaseline + 1,
			value:   *t.pendingAccount,
		}
	}
	if t.touchedTx && t.pendingTx != nil {
		txShardPtr.rows[t.txID] = txRow{
			exists:  true,
			version: t.txBaseline + 1,
			value:   *t.pendingTx,
		}
	}
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	t.done = true
	t.pendingAccount = nil
	t.pendingTx = nil
	return nil
}
