package stream_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"ledgerengine/internal/config"
	"ledgerengine/internal/csvio"
	"ledgerengine/internal/engine"
	"ledgerengine/internal/money"
	"ledgerengine/internal/storage/memstore"
	"ledgerengine/internal/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCfg() config.StreamConfig {
	return config.StreamConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func amount(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.Parse(s)
	require.NoError(t, err)
	return m
}

func TestProcessDispatchesEveryRecordKind(t *testing.T) {
	ctx := context.Background()
	e := engine.New(memstore.New())
	d := stream.New(e, nil, testCfg())

	records := []stream.Record{
		{Kind: stream.Deposit, ClientID: 1, TxID: 1, Amount: amount(t, "5.0000")},
		{Kind: stream.Withdrawal, ClientID: 1, TxID: 2, Amount: amount(t, "1.0000")},
		{Kind: stream.Dispute, ClientID: 1, TxID: 1},
		{Kind: stream.Resolve, ClientID: 1, TxID: 1},
	}

	res := d.Process(ctx, records)
	assert.Equal(t, 4, res.Processed)
	assert.Equal(t, 0, res.Failed)

	acc, err := e.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acc.Available.Equal(amount(t, "4.0000")))
}

func TestProcessCountsNonRetryableFailures(t *testing.T) {
	ctx := context.Background()
	e := engine.New(memstore.New())
	d := stream.New(e, nil, testCfg())

	records := []stream.Record{
		{Kind: stream.Withdrawal, ClientID: 1, TxID: 1, Amount: amount(t, "1.0000")}, // no account yet
	}

	res := d.Process(ctx, records)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 1, res.Failed)
}

func TestEmitSnapshotWritesHeaderAndEveryAccount(t *testing.T) {
	ctx := context.Background()
	e := engine.New(memstore.New())
	d := stream.New(e, nil, testCfg())

	require.NoError(t, e.Deposit(ctx, 1, 1, amount(t, "1.5000")))
	require.NoError(t, e.Deposit(ctx, 2, 2, amount(t, "2.0000")))

	var buf strings.Builder
	w := csvio.NewWriter(&buf)
	require.NoError(t, d.EmitSnapshot(ctx, w))

	out := buf.String()
	assert.Contains(t, out, "client,available,held,total,locked")
	assert.Contains(t, out, "1,1.5000,0.0000,1.5000,false")
	assert.Contains(t, out, "2,2.0000,0.0000,2.0000,false")
}
