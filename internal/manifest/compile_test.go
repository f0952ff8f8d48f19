package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simnet/internal/clarity"
)

const fantasyManifest = "../../contracts/fantasy-sports.cue"

func TestLoadFile_FantasySports(t *testing.T) {
	c, src, err := LoadFile(fantasyManifest)
	require.NoError(t, err)
	require.NotEmpty(t, src)

	assert.Equal(t, "fantasy-sports", c.Name)
	assert.Equal(t, "fantasy-sports@v1", c.Implementation)
	assert.Len(t, c.SourceHash, 64)

	assert.Equal(t, "u100000000", c.Constants["entry-fee"].String())
	assert.Equal(t, "u10", c.Constants["max-team-size"].String())

	name, ok := c.ErrorName(clarity.NewUInt(104))
	require.True(t, ok)
	assert.Equal(t, "ERR-TEAM-FULL", name)
	_, ok = c.ErrorName(clarity.NewUInt(999))
	assert.False(t, ok)

	codes := map[string]uint64{
		"ERR-NOT-AUTHORIZED":       100,
		"ERR-INSUFFICIENT-BALANCE": 101,
		"ERR-ALREADY-JOINED":       102,
		"ERR-NOT-JOINED":           103,
		"ERR-TEAM-FULL":            104,
		"ERR-ALREADY-DRAFTED":      105,
		"ERR-SEASON-ENDED":         106,
		"ERR-SEASON-ACTIVE":        107,
		"ERR-ALREADY-DISTRIBUTED":  108,
		"ERR-LEAGUE-FULL":          109,
		"ERR-INVALID-PLAYER":       110,
	}
	require.Len(t, c.Errors, len(codes))
	for name, code := range codes {
		assert.Equal(t, clarity.NewUInt(code), c.Errors[name], name)
	}

	assert.Equal(t,
		[]string{"participants", "prize-pool", "rewards-distributed", "season-active", "winner"},
		c.DataVarNames())
	assert.Equal(t, "true", c.DataVars["season-active"].Initial.String())
	assert.Equal(t, "(list 100 principal)", c.DataVars["participants"].Type.String())

	teams := c.Maps["teams"]
	assert.Equal(t, "principal", teams.Key.String())
	assert.Equal(t, "(list 10 uint)", teams.Value.String())

	draft, ok := c.Function("draft-player")
	require.True(t, ok)
	assert.Equal(t, AccessPublic, draft.Access)
	require.Len(t, draft.Args, 1)
	assert.Equal(t, "player-id", draft.Args[0].Name)
	assert.Equal(t, "uint", draft.Args[0].Type.String())

	pool, ok := c.Function("get-prize-pool")
	require.True(t, ok)
	assert.Equal(t, AccessReadOnly, pool.Access)
	assert.Empty(t, pool.Args)
	assert.Equal(t, "uint", pool.Returns.String())
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name: "no contract",
			src:  `other: 1`,
		},
		{
			name: "two contracts",
			src: `contract: a: {implementation: "a@v1", functions: f: access: "read-only"}
contract: b: {implementation: "b@v1", functions: f: access: "read-only"}`,
		},
		{
			name: "unknown field",
			src:  `contract: a: {implementation: "a@v1", owner: "me", functions: f: access: "read-only"}`,
		},
		{
			name: "bad access",
			src:  `contract: a: {implementation: "a@v1", functions: f: access: "private"}`,
		},
		{
			name: "bad implementation id",
			src:  `contract: a: {implementation: "A", functions: f: access: "read-only"}`,
		},
		{
			name:  "bad constant literal",
			src:   `contract: a: {implementation: "a@v1", constants: x: "(list", functions: f: access: "read-only"}`,
			field: "constants.x",
		},
		{
			name:  "initial does not match type",
			src:   `contract: a: {implementation: "a@v1", "data-vars": v: {type: "uint", initial: "true"}, functions: f: access: "read-only"}`,
			field: "data-vars.v.initial",
		},
		{
			name:  "unknown type",
			src:   `contract: a: {implementation: "a@v1", maps: m: {key: "float", value: "uint"}, functions: f: access: "read-only"}`,
			field: "maps.m.key",
		},
		{
			name:  "public without response",
			src:   `contract: a: {implementation: "a@v1", functions: f: {access: "public", returns: "uint"}}`,
			field: "functions.f.returns",
		},
		{
			name:  "duplicate error code",
			src:   `contract: a: {implementation: "a@v1", errors: {"ERR-A": 1, "ERR-B": 1}, functions: f: access: "read-only"}`,
			field: "errors.ERR-B",
		},
		{
			name:  "duplicate argument",
			src:   `contract: a: {implementation: "a@v1", functions: f: {access: "read-only", args: [{name: "x", type: "uint"}, {name: "x", type: "uint"}]}}`,
			field: "functions.f.args",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile("test.cue", []byte(tt.src))
			require.Error(t, err)
			require.True(t, IsCompileError(err), "got %T: %v", err, err)
			if tt.field != "" {
				var ce *CompileError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, tt.field, ce.Field)
				assert.Equal(t, "a", ce.Contract)
			}
		})
	}
}

func TestCompile_SyntaxErrorCarriesPosition(t *testing.T) {
	_, err := Compile("broken.cue", []byte("contract: {\n  a: \n"))
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestLoadFile_Missing(t *testing.T) {
	_, _, err := LoadFile(filepath.Join(t.TempDir(), "nope.cue"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCache_HitsBySourceHash(t *testing.T) {
	cache, err := NewCache(4)
	require.NoError(t, err)

	src, err := os.ReadFile(fantasyManifest)
	require.NoError(t, err)

	first, err := cache.Compile("a.cue", src)
	require.NoError(t, err)
	second, err := cache.Compile("b.cue", src)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())

	_, err = cache.Compile("bad.cue", []byte("contract: {"))
	require.Error(t, err)
	assert.Equal(t, 1, cache.Len())
}
