package campaign

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	maxAmountInt = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minAmountInt = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))

	maxAmount = decimal.NewFromBigInt(maxAmountInt, 0)
	minAmount = decimal.NewFromBigInt(minAmountInt, 0)
)

// Amount is a signed 128-bit integer quantity of the pledged currency.
// The zero value is 0.
type Amount struct {
	value decimal.Decimal
}

// NewAmount returns the amount for an int64 value.
func NewAmount(value int64) Amount {
	return Amount{value: decimal.NewFromInt(value)}
}

// MaxAmount returns the largest representable amount, 2^127-1.
func MaxAmount() Amount {
	return Amount{value: maxAmount}
}

// MinAmount returns the smallest representable amount, -2^127.
func MinAmount() Amount {
	return Amount{value: minAmount}
}

// ParseAmount parses a base-10 integer in the signed 128-bit range.
func ParseAmount(value string) (Amount, error) {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return fromDecimal(parsed)
}

// AmountFromBigInt converts a big integer in the signed 128-bit range.
func AmountFromBigInt(value *big.Int) (Amount, error) {
	if value == nil {
		return Amount{}, nil
	}
	return fromDecimal(decimal.NewFromBigInt(value, 0))
}

func fromDecimal(value decimal.Decimal) (Amount, error) {
	if !value.IsInteger() {
		return Amount{}, fmt.Errorf("%w: %s", ErrInvalidAmount, value.String())
	}
	if value.Cmp(maxAmount) > 0 || value.Cmp(minAmount) < 0 {
		return Amount{}, ErrAmountOverflow
	}
	return Amount{value: decimal.NewFromBigInt(value.BigInt(), 0)}, nil
}

// Add returns a+b, failing when the sum leaves the signed 128-bit range.
func (a Amount) Add(b Amount) (Amount, error) {
	sum := a.value.Add(b.value)
	if sum.Cmp(maxAmount) > 0 || sum.Cmp(minAmount) < 0 {
		return Amount{}, ErrAmountOverflow
	}
	return Amount{value: sum}, nil
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.value.Cmp(b.value)
}

// Equal reports whether a and b hold the same value.
func (a Amount) Equal(b Amount) bool {
	return a.value.Equal(b.value)
}

// Sign returns -1, 0 or +1 depending on the sign of a.
func (a Amount) Sign() int {
	return a.value.Sign()
}

// IsZero reports whether a is 0.
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// BigInt returns the amount as a new big integer.
func (a Amount) BigInt() *big.Int {
	return a.value.BigInt()
}

// Float64 returns the nearest float64, for gauges and other lossy displays.
func (a Amount) Float64() float64 {
	return a.value.InexactFloat64()
}

// String returns the base-10 representation.
func (a Amount) String() string {
	return a.value.BigInt().String()
}

// MarshalJSON encodes the amount as a quoted base-10 string so that values
// beyond 2^53 survive JSON clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a quoted or a bare base-10 integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	text := string(bytes.TrimSpace(data))
	if text == "null" {
		*a = Amount{}
		return nil
	}
	if len(text) >= 2 && text[0] == '"' {
		var quoted string
		if err := json.Unmarshal(data, &quoted); err != nil {
			return err
		}
		text = quoted
	}
	parsed, err := ParseAmount(text)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
