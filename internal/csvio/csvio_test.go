package csvio_test

import (
	"strings"
	"testing"

	"ledgerengine/internal/csvio"
	"ledgerengine/internal/money"
	"ledgerengine/internal/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAllParsesEveryKind(t *testing.T) {
	input := `type, client, tx, amount
deposit,1,1,1.0
deposit,2,2,2.0
deposit,1,3,2.0
withdrawal,1,4,1.5
dispute,1,3,
resolve,1,3,
chargeback,1,3,
`
	r := csvio.NewReader(strings.NewReader(input))
	records, skipped, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, records, 7)
	assert.Equal(t, stream.Deposit, records[0].Kind)
	assert.Equal(t, uint16(1), records[0].ClientID)
	assert.Equal(t, uint32(1), records[0].TxID)
	assert.Equal(t, stream.Chargeback, records[6].Kind)
}

func TestReadAllSkipsUnknownTypeAndMalformedRows(t *testing.T) {
	input := `type,client,tx,amount
deposit,1,1,1.0
teleport,1,2,1.0
deposit,notanumber,3,1.0
deposit,1,4,notanumber
`
	r := csvio.NewReader(strings.NewReader(input))
	records, skipped, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	require.Len(t, records, 1)
}

func TestWriterRendersFourDecimalDigitsAndBoolLocked(t *testing.T) {
	available, err := money.Parse("1.5")
	require.NoError(t, err)
	held, err := money.Parse("0")
	require.NoError(t, err)
	total, err := money.Parse("1.5")
	require.NoError(t, err)

	var buf strings.Builder
	w := csvio.NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteRow(1, available, held, total, false))
	require.NoError(t, w.Flush())

	out := buf.String()
	assert.Contains(t, out, "client,available,held,total,locked")
	assert.Contains(t, out, "1,1.5000,0.0000,1.5000,false")
}
