// Package conformance is a single backend-agnostic test suite run against
// every storage.Store implementation, mirroring the lineage's pattern of
// sharing one table of assertions across multiple concrete repositories.
package conformance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerengine/internal/ledger"
	"ledgerengine/internal/money"
	"ledgerengine/internal/storage"
)

// Run exercises store against every contract-level expectation a
// storage.Store implementation must satisfy. Call it once per backend, with
// a fresh/empty store.
func Run(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetAccountAbsent", func(t *testing.T) {
		tx, err := store.Begin(ctx, storage.Read)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		_, found, err := tx.GetAccount(ctx, 101)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("PutThenGetAccountRoundTrips", func(t *testing.T) {
		amount, err := money.Parse("12.3400")
		require.NoError(t, err)

		wtx, err := store.Begin(ctx, storage.Write)
		require.NoError(t, err)
		_, _, err = wtx.GetAccount(ctx, 102)
		require.NoError(t, err)
		require.NoError(t, wtx.PutAccount(ctx, ledger.Account{ClientID: 102, Available: amount}))
		require.NoError(t, wtx.Commit(ctx))

		rtx, err := store.Begin(ctx, storage.Read)
		require.NoError(t, err)
		defer rtx.Rollback(ctx)
		acc, found, err := rtx.GetAccount(ctx, 102)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, acc.Available.Equal(amount))
	})

	t.Run("PutThenGetTxRoundTrips", func(t *testing.T) {
		amount, err := money.Parse("5.0000")
		require.NoError(t, err)
		rec := ledger.TxRecord{ClientID: 103, Kind: ledger.Deposit, Amount: amount}

		wtx, err := store.Begin(ctx, storage.Write)
		require.NoError(t, err)
		_, _, err = wtx.GetTx(ctx, 9001)
		require.NoError(t, err)
		require.NoError(t, wtx.PutTx(ctx, 9001, rec))
		require.NoError(t, wtx.Commit(ctx))

		rtx, err := store.Begin(ctx, storage.Read)
		require.NoError(t, err)
		defer rtx.Rollback(ctx)
		got, found, err := rtx.GetTx(ctx, 9001)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, ledger.Deposit, got.Kind)
		assert.True(t, got.Amount.Equal(amount))
	})

	t.Run("ReadOnlyTxRejectsWrites", func(t *testing.T) {
		rtx, err := store.Begin(ctx, storage.Read)
		require.NoError(t, err)
		defer rtx.Rollback(ctx)

		err = rtx.PutAccount(ctx, ledger.Account{ClientID: 104})
		assert.ErrorIs(t, err, storage.ErrReadOnly)
	})

	t.Run("ConflictOnConcurrentAccountWrite", func(t *testing.T) {
		tx1, err := store.Begin(ctx, storage.Write)
		require.NoError(t, err)
		_, _, err = tx1.GetAccount(ctx, 105)
		require.NoError(t, err)
		require.NoError(t, tx1.PutAccount(ctx, ledger.Account{ClientID: 105}))

		tx2, err := store.Begin(ctx, storage.Write)
		require.NoError(t, err)
		_, _, err = tx2.GetAccount(ctx, 105)
		require.NoError(t, err)
		require.NoError(t, tx2.PutAccount(ctx, ledger.Account{ClientID: 105}))

		require.NoError(t, tx1.Commit(ctx))
		err = tx2.Commit(ctx)
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("AccountsEnumeratesEveryKnownClient", func(t *testing.T) {
		for _, id := range []uint16{201, 202, 203} {
			wtx, err := store.Begin(ctx, storage.Write)
			require.NoError(t, err)
			_, _, err = wtx.GetAccount(ctx, id)
			require.NoError(t, err)
			require.NoError(t, wtx.PutAccount(ctx, ledger.Account{ClientID: id}))
			require.NoError(t, wtx.Commit(ctx))
		}

		ch, err := store.Accounts(ctx)
		require.NoError(t, err)
		seen := map[uint16]bool{}
		for acc := range ch {
			seen[acc.ClientID] = true
		}
		assert.True(t, seen[201])
		assert.True(t, seen[202])
		assert.True(t, seen[203])
	})
}
