package order

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Value is the multiplicative order of a polynomial, or Undefined when the
// order does not exist. The zero Value is Undefined.
type Value struct {
	n *big.Int
}

// Undefined is the order of a polynomial that is not coprime to t
var Undefined = Value{}

// NewValue returns a defined order. n must be positive.
func NewValue(n *big.Int) Value {
	if n == nil || n.Sign() <= 0 {
		panic(fmt.Sprintf("order must be positive, got %v", n))
	}
	return Value{n: new(big.Int).Set(n)}
}

// FromUint64 returns a defined order
func FromUint64(n uint64) Value {
	return NewValue(new(big.Int).SetUint64(n))
}

// IsDefined reports whether the order exists
func (v Value) IsDefined() bool {
	return v.n != nil
}

// BigInt returns a copy of the order, or nil when undefined
func (v Value) BigInt() *big.Int {
	if v.n == nil {
		return nil
	}
	return new(big.Int).Set(v.n)
}

// Uint64 returns the order and whether it is defined and fits in 64 bits
func (v Value) Uint64() (uint64, bool) {
	if v.n == nil || !v.n.IsUint64() {
		return 0, false
	}
	return v.n.Uint64(), true
}

// Equal compares two values; two undefined values are equal
func (v Value) Equal(o Value) bool {
	if v.n == nil || o.n == nil {
		return v.n == nil && o.n == nil
	}
	return v.n.Cmp(o.n) == 0
}

// EqualBig reports whether v is defined and equal to n
func (v Value) EqualBig(n *big.Int) bool {
	return v.n != nil && n != nil && v.n.Cmp(n) == 0
}

func (v Value) String() string {
	if v.n == nil {
		return "undefined"
	}
	return v.n.String()
}

// MarshalJSON renders a defined order as a decimal string, which keeps
// orders beyond 2^53 exact, and an undefined one as "undefined".
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseValue(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseValue parses the output of String
func ParseValue(s string) (Value, error) {
	if s == "undefined" {
		return Undefined, nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() <= 0 {
		return Undefined, fmt.Errorf("invalid order %q", s)
	}
	return Value{n: n}, nil
}

// LCM returns the least common multiple of the defined values. Undefined
// values are skipped; the result is Undefined only when no value is
// defined.
func LCM(values ...Value) Value {
	var acc *big.Int
	gcd := new(big.Int)
	for _, v := range values {
		if !v.IsDefined() {
			continue
		}
		if acc == nil {
			acc = new(big.Int).Set(v.n)
			continue
		}
		gcd.GCD(nil, nil, acc, v.n)
		acc.Mul(acc, new(big.Int).Quo(v.n, gcd))
	}
	if acc == nil {
		return Undefined
	}
	return Value{n: acc}
}
