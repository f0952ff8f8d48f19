package tx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeysAndCompacts(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"nonce":    uint64(3),
		"args":     []string{"u1", "'ST1"},
		"contract": "ST1.fantasy-sports",
		"amount":   "100",
		"kind":     "call",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"amount":"100","args":["u1","'ST1"],"contract":"ST1.fantasy-sports","kind":"call","nonce":3}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(got))
}

func TestMarshalCanonical_NFCNormalizes(t *testing.T) {
	decomposed := "e\u0301"
	composed := "\u00e9"

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestMarshalCanonical_LineSeparatorsLiteral(t *testing.T) {
	got, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(got))

	// A literal backslash followed by u2028 text stays escaped.
	got, err = MarshalCanonical(`\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(got))
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates starting 0xD83D, which sorts before
	// U+FF61 in UTF-16 even though its UTF-8 bytes sort after.
	got, err := MarshalCanonical(map[string]any{
		"\uff61":     1,
		"\U0001F600": 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uff61\":1}", string(got))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	for name, v := range map[string]any{
		"nil":          nil,
		"float":        1.5,
		"nested float": map[string]any{"x": []any{2.5}},
		"struct":       struct{}{},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := MarshalCanonical(v)
			assert.Error(t, err)
		})
	}
}
