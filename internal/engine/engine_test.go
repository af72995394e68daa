package engine_test

import (
	"context"
	"testing"

	"ledgerengine/internal/engine"
	"ledgerengine/internal/ledger"
	"ledgerengine/internal/money"
	"ledgerengine/internal/storage/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.Parse(s)
	require.NoError(t, err)
	return m
}

func newEngine() *engine.Engine {
	return engine.New(memstore.New())
}

func TestDepositCreditsNewAccount(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))

	acc, err := e.GetAccount(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.True(t, acc.Available.Equal(amount(t, "5.0000")))
	assert.True(t, acc.Held.IsZero())
	assert.False(t, acc.Locked)
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	err := e.Deposit(ctx, 1, 100, amount(t, "0"))
	assert.ErrorIs(t, err, engine.ErrInvalidAmount)

	err = e.Deposit(ctx, 1, 101, amount(t, "-1"))
	assert.ErrorIs(t, err, engine.ErrInvalidAmount)
}

func TestDepositIsIdempotentOnExactReplay(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))

	acc, err := e.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acc.Available.Equal(amount(t, "5.0000")), "replay must not double-credit")
}

func TestDepositWithSameTxIDDifferentAmountIsDuplicate(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	err := e.Deposit(ctx, 1, 100, amount(t, "6.0000"))
	assert.ErrorIs(t, err, engine.ErrDuplicateTransactionId)
}

func TestDepositWithSameTxIDDifferentClientIsDuplicate(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	err := e.Deposit(ctx, 2, 100, amount(t, "5.0000"))
	assert.ErrorIs(t, err, engine.ErrDuplicateTransactionId)
}

func TestWithdrawRequiresExistingAccount(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	err := e.Withdraw(ctx, 1, 100, amount(t, "1.0000"))
	assert.ErrorIs(t, err, engine.ErrAccountNotFound)
}

func TestWithdrawRejectsInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	err := e.Withdraw(ctx, 1, 101, amount(t, "5.0001"))
	assert.ErrorIs(t, err, engine.ErrInsufficientFunds)
}

func TestWithdrawDebitsAvailable(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	require.NoError(t, e.Withdraw(ctx, 1, 101, amount(t, "2.0000")))

	acc, err := e.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acc.Available.Equal(amount(t, "3.0000")))
}

func TestDisputeMovesFundsToHeld(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	require.NoError(t, e.Dispute(ctx, 1, 100))

	acc, err := e.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acc.Available.IsZero())
	assert.True(t, acc.Held.Equal(amount(t, "5.0000")))
	total, err := acc.Total()
	require.NoError(t, err)
	assert.True(t, total.Equal(amount(t, "5.0000")))
}

func TestDisputeUnknownTxFails(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	err := e.Dispute(ctx, 1, 999)
	assert.ErrorIs(t, err, engine.ErrTxNotFound)
}

func TestDisputeOnAnotherClientsTxFails(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	err := e.Dispute(ctx, 2, 100)
	assert.ErrorIs(t, err, engine.ErrTxClientMismatch)
}

func TestDisputeOnWithdrawalFails(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	require.NoError(t, e.Withdraw(ctx, 1, 101, amount(t, "1.0000")))
	err := e.Dispute(ctx, 1, 101)
	assert.ErrorIs(t, err, engine.ErrNotDisputable)
}

func TestDisputeTwiceFails(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	require.NoError(t, e.Dispute(ctx, 1, 100))
	err := e.Dispute(ctx, 1, 100)
	assert.ErrorIs(t, err, engine.ErrAlreadyDisputed)
}

func TestResolveRestoresAvailable(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	require.NoError(t, e.Dispute(ctx, 1, 100))
	require.NoError(t, e.Resolve(ctx, 1, 100))

	acc, err := e.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acc.Available.Equal(amount(t, "5.0000")))
	assert.True(t, acc.Held.IsZero())
	assert.False(t, acc.Locked)
}

func TestResolveWithoutDisputeFails(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	err := e.Resolve(ctx, 1, 100)
	assert.ErrorIs(t, err, engine.ErrNotDisputed)
}

func TestResolveAfterChargebackFails(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	require.NoError(t, e.Dispute(ctx, 1, 100))
	require.NoError(t, e.Chargeback(ctx, 1, 100))
	err := e.Resolve(ctx, 1, 100)
	assert.ErrorIs(t, err, engine.ErrNotDisputed)
}

func TestChargebackLocksAccountAndRemovesHeldFunds(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	require.NoError(t, e.Dispute(ctx, 1, 100))
	require.NoError(t, e.Chargeback(ctx, 1, 100))

	acc, err := e.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acc.Available.IsZero())
	assert.True(t, acc.Held.IsZero())
	assert.True(t, acc.Locked)
}

func TestChargebackTwiceFails(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	require.NoError(t, e.Dispute(ctx, 1, 100))
	require.NoError(t, e.Chargeback(ctx, 1, 100))
	err := e.Chargeback(ctx, 1, 100)
	assert.ErrorIs(t, err, engine.ErrNotDisputed)
}

func TestLockedAccountRejectsFurtherDepositsAndWithdrawals(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "5.0000")))
	require.NoError(t, e.Dispute(ctx, 1, 100))
	require.NoError(t, e.Chargeback(ctx, 1, 100))

	err := e.Deposit(ctx, 1, 200, amount(t, "1.0000"))
	assert.ErrorIs(t, err, engine.ErrAccountLocked)

	err = e.Withdraw(ctx, 1, 201, amount(t, "1.0000"))
	assert.ErrorIs(t, err, engine.ErrAccountLocked)
}

func TestAccountsEnumeratesEveryKnownClient(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 100, amount(t, "1.0000")))
	require.NoError(t, e.Deposit(ctx, 2, 101, amount(t, "2.0000")))
	require.NoError(t, e.Deposit(ctx, 3, 102, amount(t, "3.0000")))

	ch, err := e.Accounts(ctx)
	require.NoError(t, err)

	seen := map[uint16]ledger.Account{}
	for acc := range ch {
		seen[acc.ClientID] = acc
	}
	assert.Len(t, seen, 3)
	assert.True(t, seen[2].Available.Equal(amount(t, "2.0000")))
}

// TestEndToEndScenario exercises deposit, withdrawal (including a rejected
// overdraft), dispute and chargeback together across two clients, the way
// the CLI's CSV driver would replay a real input stream.
func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	require.NoError(t, e.Deposit(ctx, 1, 1, amount(t, "1.0000")))
	require.NoError(t, e.Deposit(ctx, 2, 2, amount(t, "2.0000")))
	require.NoError(t, e.Deposit(ctx, 1, 3, amount(t, "2.0000")))
	require.NoError(t, e.Withdraw(ctx, 1, 4, amount(t, "1.5000")))
	require.ErrorIs(t, e.Withdraw(ctx, 2, 5, amount(t, "3.0000")), engine.ErrInsufficientFunds)

	acc1, err := e.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acc1.Available.Equal(amount(t, "1.5000")))

	acc2, err := e.GetAccount(ctx, 2)
	require.NoError(t, err)
	assert.True(t, acc2.Available.Equal(amount(t, "2.0000")), "overdraft withdrawal must be rejected, leaving balance unchanged")

	require.NoError(t, e.Dispute(ctx, 1, 3))
	acc1, err = e.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acc1.Available.Equal(amount(t, "-0.5000")))
	assert.True(t, acc1.Held.Equal(amount(t, "2.0000")))

	require.NoError(t, e.Chargeback(ctx, 1, 3))
	acc1, err = e.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acc1.Available.Equal(amount(t, "-0.5000")))
	assert.True(t, acc1.Held.IsZero())
	assert.True(t, acc1.Locked)
}
