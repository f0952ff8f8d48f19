package clarity

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// ErrOverflow is returned when uint arithmetic leaves the 128-bit range.
var ErrOverflow = errors.New("arithmetic overflow")

// ErrUnderflow is returned when uint subtraction would go below zero.
var ErrUnderflow = errors.New("arithmetic underflow")

// maxUIntBits is the width of a Clarity uint.
const maxUIntBits = 128

// Value is a sealed interface over the Clarity value kinds the simulator
// supports. String returns the literal form, which is also accepted by Parse.
type Value interface {
	clarityValue() // Sealed - only types in this package implement it
	String() string
}

// UInt is an unsigned 128-bit integer, printed as u123.
type UInt struct {
	v uint256.Int
}

func (UInt) clarityValue() {}

// NewUInt creates a UInt from a uint64.
func NewUInt(n uint64) UInt {
	var u UInt
	u.v.SetUint64(n)
	return u
}

// UIntFromUint256 creates a UInt from a uint256, rejecting values wider than 128 bits.
func UIntFromUint256(n *uint256.Int) (UInt, error) {
	if n.BitLen() > maxUIntBits {
		return UInt{}, ErrOverflow
	}
	var u UInt
	u.v.Set(n)
	return u, nil
}

// ParseUIntDecimal parses a plain decimal string (no u prefix).
func ParseUIntDecimal(s string) (UInt, error) {
	n, err := uint256.FromDecimal(s)
	if err != nil {
		return UInt{}, fmt.Errorf("invalid uint %q: %w", s, err)
	}
	return UIntFromUint256(n)
}

// Uint256 returns a copy of the underlying integer.
func (u UInt) Uint256() *uint256.Int {
	return new(uint256.Int).Set(&u.v)
}

// Uint64 returns the value and whether it fits in a uint64.
func (u UInt) Uint64() (uint64, bool) {
	return u.v.Uint64(), u.v.IsUint64()
}

// Dec returns the decimal digits without the u prefix.
func (u UInt) Dec() string {
	return u.v.Dec()
}

// IsZero reports whether u is u0.
func (u UInt) IsZero() bool {
	return u.v.IsZero()
}

// Cmp compares u and o and returns -1, 0 or +1.
func (u UInt) Cmp(o UInt) int {
	return u.v.Cmp(&o.v)
}

// Add returns u+o or ErrOverflow.
func (u UInt) Add(o UInt) (UInt, error) {
	var sum uint256.Int
	if _, overflow := sum.AddOverflow(&u.v, &o.v); overflow {
		return UInt{}, ErrOverflow
	}
	return UIntFromUint256(&sum)
}

// Sub returns u-o or ErrUnderflow.
func (u UInt) Sub(o UInt) (UInt, error) {
	var diff uint256.Int
	if _, underflow := diff.SubOverflow(&u.v, &o.v); underflow {
		return UInt{}, ErrUnderflow
	}
	return UInt{v: diff}, nil
}

func (u UInt) String() string {
	return "u" + u.v.Dec()
}

// Int is a signed integer. Clarity ints are 128-bit; the simulator keeps
// the int64 range, which covers every value the harness exchanges.
type Int int64

func (Int) clarityValue() {}

func (i Int) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// Bool is a Clarity boolean.
type Bool bool

func (Bool) clarityValue() {}

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Principal identifies an account or a contract.
// A contract principal has a non-empty Contract name.
type Principal struct {
	Address  string
	Contract string
}

func (Principal) clarityValue() {}

// StandardPrincipal returns the principal for an account address.
func StandardPrincipal(address string) Principal {
	return Principal{Address: address}
}

// ContractPrincipal returns the principal for a contract deployed by address.
func ContractPrincipal(address, name string) Principal {
	return Principal{Address: address, Contract: name}
}

// IsContract reports whether p names a contract.
func (p Principal) IsContract() bool {
	return p.Contract != ""
}

// ID returns the principal without the literal quote, e.g. ST1...fantasy-sports.
func (p Principal) ID() string {
	if p.Contract == "" {
		return p.Address
	}
	return p.Address + "." + p.Contract
}

func (p Principal) String() string {
	return "'" + p.ID()
}

// StringASCII is an ASCII string value.
type StringASCII string

func (StringASCII) clarityValue() {}

func (s StringASCII) String() string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// List is an ordered sequence of values.
type List []Value

func (List) clarityValue() {}

func (l List) String() string {
	if len(l) == 0 {
		return "(list)"
	}
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return "(list " + strings.Join(parts, " ") + ")"
}

// Contains reports whether the list holds a value equal to v.
func (l List) Contains(v Value) bool {
	for _, elem := range l {
		if Equal(elem, v) {
			return true
		}
	}
	return false
}

// Tuple is a record of named values.
type Tuple map[string]Value

func (Tuple) clarityValue() {}

// SortedKeys returns the tuple field names in byte order.
func (t Tuple) SortedKeys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t Tuple) String() string {
	var b strings.Builder
	b.WriteString("(tuple")
	for _, k := range t.SortedKeys() {
		fmt.Fprintf(&b, " (%s %s)", k, t[k])
	}
	b.WriteByte(')')
	return b.String()
}

// Optional holds either some value or none.
type Optional struct {
	Some Value // nil means none
}

func (Optional) clarityValue() {}

// None is the empty optional.
var None = Optional{}

// Some wraps v in an optional.
func Some(v Value) Optional {
	return Optional{Some: v}
}

// IsNone reports whether the optional is empty.
func (o Optional) IsNone() bool {
	return o.Some == nil
}

func (o Optional) String() string {
	if o.Some == nil {
		return "none"
	}
	return "(some " + o.Some.String() + ")"
}

// Response is the result of a public function: (ok v) or (err v).
type Response struct {
	Ok    bool
	Value Value
}

func (Response) clarityValue() {}

// Ok builds an (ok v) response.
func Ok(v Value) Response {
	return Response{Ok: true, Value: v}
}

// Err builds an (err v) response.
func Err(v Value) Response {
	return Response{Ok: false, Value: v}
}

func (r Response) String() string {
	tag := "err"
	if r.Ok {
		tag = "ok"
	}
	return "(" + tag + " " + r.Value.String() + ")"
}

// Equal reports whether two values have the same kind and contents.
// Literal forms are unique per value, so comparison is by literal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}
