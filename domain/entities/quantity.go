package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// Token symbols recognized by the payment path. Amounts are scaled by 10^2,
// so 10000 means 100.00.
const (
	SymbolReward = "REWARD"
	SymbolVote   = "VOTE"
	SymbolUSD    = "USD"
)

// QuantityPrecision is the number of implied decimal places on Amount.
const QuantityPrecision = 2

// Quantity is an integer token amount in a named denomination.
type Quantity struct {
	Amount int64  `json:"amount"`
	Symbol string `json:"symbol"`
}

// NewQuantity builds a quantity from a raw scaled amount.
func NewQuantity(amount int64, symbol string) Quantity {
	return Quantity{Amount: amount, Symbol: symbol}
}

// Scale multiplies the amount by a float ratio, truncating toward zero.
// Capacity math stays in integers; this is the only float boundary.
func (q Quantity) Scale(ratio float64) Quantity {
	return Quantity{Amount: int64(float64(q.Amount) * ratio), Symbol: q.Symbol}
}

// IsZero reports whether the amount is zero.
func (q Quantity) IsZero() bool {
	return q.Amount == 0
}

// IsVote reports whether the denomination is voting power.
func (q Quantity) IsVote() bool {
	return q.Symbol == SymbolVote
}

// GreaterThan compares amounts. Panics are avoided; comparing across
// denominations is a caller bug and simply compares raw amounts.
func (q Quantity) GreaterThan(other Quantity) bool {
	return q.Amount > other.Amount
}

// GreaterOrEqual compares amounts.
func (q Quantity) GreaterOrEqual(other Quantity) bool {
	return q.Amount >= other.Amount
}

// String renders the quantity with its implied precision, e.g. "100.00 VOTE".
func (q Quantity) String() string {
	whole := q.Amount / 100
	frac := q.Amount % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%02d %s", whole, frac, q.Symbol)
}

// ParseQuantity parses the String form back into a Quantity.
func ParseQuantity(s string) (Quantity, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return Quantity{}, fmt.Errorf("malformed quantity %q", s)
	}
	numParts := strings.SplitN(parts[0], ".", 2)
	whole, err := strconv.ParseInt(numParts[0], 10, 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("malformed quantity amount %q: %w", parts[0], err)
	}
	var frac int64
	if len(numParts) == 2 {
		padded := numParts[1]
		for len(padded) < QuantityPrecision {
			padded += "0"
		}
		frac, err = strconv.ParseInt(padded[:QuantityPrecision], 10, 64)
		if err != nil {
			return Quantity{}, fmt.Errorf("malformed quantity fraction %q: %w", parts[0], err)
		}
	}
	amount := whole*100 + frac
	if whole < 0 || strings.HasPrefix(numParts[0], "-") {
		amount = whole*100 - frac
	}
	return Quantity{Amount: amount, Symbol: parts[1]}, nil
}
