package memstore_test

import (
	"context"
	"sync"
	"testing"

	"ledgerengine/internal/ledger"
	"ledgerengine/internal/money"
	"ledgerengine/internal/storage"
	"ledgerengine/internal/storage/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAccountAbsent(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	tx, err := s.Begin(ctx, storage.Read)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	_, found, err := tx.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	amount, _ := money.Parse("10")

	wtx, err := s.Begin(ctx, storage.Write)
	require.NoError(t, err)
	_, _, err = wtx.GetAccount(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, wtx.PutAccount(ctx, ledger.Account{ClientID: 1, Available: amount}))
	require.NoError(t, wtx.Commit(ctx))

	rtx, err := s.Begin(ctx, storage.Read)
	require.NoError(t, err)
	defer rtx.Rollback(ctx)
	acc, found, err := rtx.GetAccount(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, acc.Available.Equal(amount))
}

func TestReadOnlyTxRejectsWrites(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	rtx, err := s.Begin(ctx, storage.Read)
	require.NoError(t, err)
	defer rtx.Rollback(ctx)

	err = rtx.PutAccount(ctx, ledger.Account{ClientID: 1})
	assert.ErrorIs(t, err, storage.ErrReadOnly)
}

func TestConflictOnConcurrentAccountWrite(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	tx1, err := s.Begin(ctx, storage.Write)
	require.NoError(t, err)
	_, _, err = tx1.GetAccount(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, tx1.PutAccount(ctx, ledger.Account{ClientID: 1}))

	tx2, err := s.Begin(ctx, storage.Write)
	require.NoError(t, err)
	_, _, err = tx2.GetAccount(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, tx2.PutAccount(ctx, ledger.Account{ClientID: 1}))

	require.NoError(t, tx1.Commit(ctx))
	err = tx2.Commit(ctx)
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestConcurrentIdenticalDepositOnlyOneMutatesVersion(t *testing.T) {
	// Simulates N concurrent read-modify-write attempts to deposit into the
	// same, previously-nonexistent account for the same client. Every attempt
	// reads before any of them commits, so exactly one must win the race at
	// the storage layer; the rest see ErrConflict.
	ctx := context.Background()
	s := memstore.New()
	amount, _ := money.Parse("1")

	const n = 50
	var wg, read sync.WaitGroup
	wg.Add(n)
	read.Add(n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			wtx, err := s.Begin(ctx, storage.Write)
			if err != nil {
				errs[i] = err
				read.Done()
				return
			}
			acc, found, err := wtx.GetAccount(ctx, 7)
			read.Done()
			if err != nil {
				errs[i] = err
				return
			}
			if !found {
				acc = ledger.Account{ClientID: 7}
			}
			sum, _ := acc.Available.Add(amount)
			acc.Available = sum
			if err := wtx.PutAccount(ctx, acc); err != nil {
				errs[i] = err
				return
			}
			read.Wait()
			errs[i] = wtx.Commit(ctx)
		}()
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, storage.ErrConflict)
		}
	}
	assert.Equal(t, 1, successes, "exactly one of the racing read-modify-writes should commit")
}

func TestAccountsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	for i := uint16(1); i <= 3; i++ {
		wtx, err := s.Begin(ctx, storage.Write)
		require.NoError(t, err)
		_, _, err = wtx.GetAccount(ctx, i)
		require.NoError(t, err)
		require.NoError(t, wtx.PutAccount(ctx, ledger.Account{ClientID: i}))
		require.NoError(t, wtx.Commit(ctx))
	}

	ch, err := s.Accounts(ctx)
	require.NoError(t, err)
	seen := map[uint16]bool{}
	for acc := range ch {
		seen[acc.ClientID] = true
	}
	assert.Len(t, seen, 3)
}
