package money_test

import (
	"testing"

	"ledgerengine/internal/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.5", "1.5000"},
		{"0", "0.0000"},
		{"-3.25", "-3.2500"},
		{"100", "100.0000"},
		{"1.23455", "1.2345"}, // tie breaks toward zero
		{"-1.23455", "-1.2345"},
		{"1.23456", "1.2346"}, // not a tie, rounds normally
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := money.Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"NaN", "Inf", "-Inf", "abc", ""} {
		t.Run(in, func(t *testing.T) {
			_, err := money.Parse(in)
			assert.Error(t, err)
		})
	}
}

func TestAddSub(t *testing.T) {
	a, _ := money.Parse("1.5")
	b, _ := money.Parse("2.0")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "3.5000", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "-0.5000", diff.String())
	assert.True(t, diff.IsNegative())
}

func TestPredicatesAndCmp(t *testing.T) {
	zero := money.Zero
	assert.True(t, zero.IsZero())

	pos, _ := money.Parse("1")
	neg, _ := money.Parse("-1")

	assert.True(t, pos.IsPositive())
	assert.True(t, neg.IsNegative())
	assert.Equal(t, 1, pos.Cmp(neg))
	assert.Equal(t, -1, neg.Cmp(pos))
	assert.True(t, neg.LessThan(pos))
	assert.True(t, pos.Equal(pos.Neg().Neg()))
}

func TestNew(t *testing.T) {
	m := money.New(1, 5000)
	assert.Equal(t, "1.5000", m.String())
}
