package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	d := Default()
	require.Len(t, d.Accounts, 4)

	names := make([]string, len(d.Accounts))
	for i, a := range d.Accounts {
		names[i] = a.Name
	}
	assert.Equal(t, []string{"deployer", "user1", "user2", "user3"}, names)

	bal, ok := d.GenesisBalance("user1")
	require.True(t, ok)
	assert.Equal(t, "100000000000000", bal.Dec())

	pool, err := d.Identities()
	require.NoError(t, err)
	require.Len(t, pool, 4)
	seen := map[string]bool{}
	for _, id := range pool {
		assert.False(t, seen[id.Address], "duplicate address %s", id.Address)
		seen[id.Address] = true
		assert.Equal(t, "ST", id.Address[:2])
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{
			name:  "unknown network",
			yaml:  "network: regtest\naccounts: [{name: a, mnemonic: 'zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo wrong', balance: '1'}]\n",
			field: "network",
		},
		{
			name:  "no accounts",
			yaml:  "network: testnet\n",
			field: "accounts",
		},
		{
			name:  "bad mnemonic",
			yaml:  "accounts: [{name: a, mnemonic: 'zoo zoo zoo', balance: '1'}]\n",
			field: "accounts[0].mnemonic",
		},
		{
			name:  "bad balance",
			yaml:  "accounts: [{name: a, mnemonic: 'zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo wrong', balance: 'lots'}]\n",
			field: "accounts[0].balance",
		},
		{
			name: "duplicate name",
			yaml: "accounts:\n" +
				"  - {name: a, mnemonic: 'zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo wrong', balance: '1'}\n" +
				"  - {name: a, mnemonic: 'zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo wrong', balance: '1'}\n",
			field: "accounts[1].name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			require.True(t, IsValidationError(err), "got %v", err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("network: testnet\nfaucet: true\n"))
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devnet.yaml")
	doc := "network: mainnet\naccounts:\n  - name: solo\n    mnemonic: \"zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo wrong\"\n    balance: \"5\"\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	pool, err := d.Identities()
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "SP", pool[0].Address[:2])
}
