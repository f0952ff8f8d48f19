package clarity

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	addr := "ST1SJ3DTE5DN7X54YDH5D64R3BCB6A2AG2ZQ8YPD5"
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"uint", NewUInt(100), "u100"},
		{"int negative", Int(-7), "-7"},
		{"bool", Bool(true), "true"},
		{"standard principal", StandardPrincipal(addr), "'" + addr},
		{"contract principal", ContractPrincipal(addr, "fantasy-sports"), "'" + addr + ".fantasy-sports"},
		{"empty list", List{}, "(list)"},
		{"list", List{NewUInt(1), NewUInt(2)}, "(list u1 u2)"},
		{"none", None, "none"},
		{"some", Some(NewUInt(3)), "(some u3)"},
		{"ok", Ok(Bool(true)), "(ok true)"},
		{"err", Err(NewUInt(101)), "(err u101)"},
		{"tuple sorted", Tuple{"b": NewUInt(2), "a": NewUInt(1)}, "(tuple (a u1) (b u2))"},
		{"string escapes", StringASCII(`say "hi"`), `"say \"hi\""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestUIntArithmetic(t *testing.T) {
	sum, err := NewUInt(40).Add(NewUInt(60))
	require.NoError(t, err)
	assert.Equal(t, "u100", sum.String())

	diff, err := sum.Sub(NewUInt(100))
	require.NoError(t, err)
	assert.True(t, diff.IsZero())

	_, err = NewUInt(1).Sub(NewUInt(2))
	assert.ErrorIs(t, err, ErrUnderflow)
}

func TestUIntOverflowAt128Bits(t *testing.T) {
	limit := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	limit.SubUint64(limit, 1)

	u, err := UIntFromUint256(limit)
	require.NoError(t, err)

	_, err = u.Add(NewUInt(1))
	assert.ErrorIs(t, err, ErrOverflow)

	tooWide := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	_, err = UIntFromUint256(tooWide)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestUIntCmp(t *testing.T) {
	assert.Equal(t, -1, NewUInt(1).Cmp(NewUInt(2)))
	assert.Equal(t, 0, NewUInt(2).Cmp(NewUInt(2)))
	assert.Equal(t, 1, NewUInt(3).Cmp(NewUInt(2)))
}

func TestListContains(t *testing.T) {
	team := List{NewUInt(1), NewUInt(7)}
	assert.True(t, team.Contains(NewUInt(7)))
	assert.False(t, team.Contains(NewUInt(8)))
	assert.False(t, team.Contains(Int(7)), "int 7 is not uint 7")
}

func TestPrincipal(t *testing.T) {
	account := MustParse("'ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM").(Principal)
	assert.False(t, account.IsContract())
	assert.Equal(t, StandardPrincipal(account.Address), account)

	contract := ContractPrincipal(account.Address, "fantasy-sports")
	assert.True(t, contract.IsContract())
	assert.Equal(t, account.Address+".fantasy-sports", contract.ID())
	assert.Equal(t, contract, MustParse(contract.String()))
}

func TestMustParse_PanicsOnMalformedLiteral(t *testing.T) {
	assert.Equal(t, NewUInt(7), MustParse("u7"))
	assert.Panics(t, func() { MustParse("(list u1") })
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Some(NewUInt(1)), Some(NewUInt(1))))
	assert.False(t, Equal(Ok(NewUInt(1)), Err(NewUInt(1))))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, None))
}
