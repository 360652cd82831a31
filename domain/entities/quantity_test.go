package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_Scale_TruncatesTowardZero(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		ratio    float64
		expected int64
	}{
		{"full ratio", 10000, 1.0, 10000},
		{"half ratio", 10000, 0.5, 5000},
		{"quorum fraction of supply", 12500, 0.20, 2500},
		{"truncates fractional result", 9999, 0.20, 1999},
		{"truncates small remainder", 101, 0.5, 50},
		{"zero ratio", 10000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuantity(tt.amount, SymbolVote)
			assert.Equal(t, tt.expected, q.Scale(tt.ratio).Amount)
			assert.Equal(t, SymbolVote, q.Scale(tt.ratio).Symbol)
		})
	}
}

func TestQuantity_String(t *testing.T) {
	assert.Equal(t, "100.00 VOTE", NewQuantity(10000, SymbolVote).String())
	assert.Equal(t, "0.01 REWARD", NewQuantity(1, SymbolReward).String())
	assert.Equal(t, "1.00 VOTE", NewQuantity(100, SymbolVote).String())
	assert.Equal(t, "25.50 USD", NewQuantity(2550, SymbolUSD).String())
}

func TestParseQuantity(t *testing.T) {
	q, err := ParseQuantity("100.00 VOTE")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), q.Amount)
	assert.Equal(t, SymbolVote, q.Symbol)

	q, err = ParseQuantity("0.01 REWARD")
	require.NoError(t, err)
	assert.Equal(t, int64(1), q.Amount)

	q, err = ParseQuantity("3.5 USD")
	require.NoError(t, err)
	assert.Equal(t, int64(350), q.Amount)

	_, err = ParseQuantity("garbage")
	assert.Error(t, err)

	_, err = ParseQuantity("x.y VOTE")
	assert.Error(t, err)
}

func TestQuantity_Comparisons(t *testing.T) {
	assert.True(t, NewQuantity(2500, SymbolVote).GreaterOrEqual(NewQuantity(2500, SymbolVote)))
	assert.True(t, NewQuantity(2501, SymbolVote).GreaterThan(NewQuantity(2500, SymbolVote)))
	assert.False(t, NewQuantity(2500, SymbolVote).GreaterThan(NewQuantity(2500, SymbolVote)))
	assert.True(t, NewQuantity(0, SymbolUSD).IsZero())
	assert.True(t, NewQuantity(1, SymbolVote).IsVote())
	assert.False(t, NewQuantity(1, SymbolReward).IsVote())
}
