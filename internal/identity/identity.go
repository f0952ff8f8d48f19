// Package identity derives the fixed pool of test accounts.
//
// Each account comes from a BIP39 mnemonic: the BIP39 seed is hashed with a
// domain prefix into a secp256k1 private key, and the address is the
// c32check encoding of the compressed public key's hash160. The same
// mnemonic always yields the same account, so fresh environments share
// addresses across runs.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip39"

	"github.com/roach88/simnet/internal/clarity"
)

const derivationDomain = "simnet/account/v1"

// compressedSuffix marks a private key whose public key is compressed,
// matching the 33-byte hex form Stacks tooling prints.
const compressedSuffix = "01"

// Identity is a named test account.
type Identity struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`

	key *secp256k1.PrivateKey
}

// FromMnemonic derives an identity from a BIP39 mnemonic.
func FromMnemonic(name, mnemonic string, version byte) (Identity, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return Identity{}, fmt.Errorf("identity %q: invalid mnemonic", name)
	}
	seed := bip39.NewSeed(mnemonic, "")

	h := sha256.New()
	h.Write([]byte(derivationDomain))
	h.Write([]byte{0x00})
	h.Write(seed)
	key := secp256k1.PrivKeyFromBytes(h.Sum(nil))

	return fromKey(name, key, version), nil
}

// FromPrivateKey builds an identity from a hex private key.
func FromPrivateKey(name, hexKey string, version byte) (Identity, error) {
	key, err := ParsePrivateKey(hexKey)
	if err != nil {
		return Identity{}, fmt.Errorf("identity %q: %w", name, err)
	}
	return fromKey(name, key, version), nil
}

func fromKey(name string, key *secp256k1.PrivateKey, version byte) Identity {
	pub := key.PubKey()
	return Identity{
		Name:       name,
		Address:    AddressFromPublicKey(pub, version),
		PublicKey:  hex.EncodeToString(pub.SerializeCompressed()),
		PrivateKey: hex.EncodeToString(key.Serialize()) + compressedSuffix,
		key:        key,
	}
}

// ParsePrivateKey accepts 32-byte hex keys with or without the 01 suffix.
func ParsePrivateKey(hexKey string) (*secp256k1.PrivateKey, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")
	if len(hexKey) == 66 && strings.HasSuffix(hexKey, compressedSuffix) {
		hexKey = hexKey[:64]
	}
	if len(hexKey) != 64 {
		return nil, fmt.Errorf("private key must be 32 bytes of hex, got %d characters", len(hexKey))
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	return secp256k1.PrivKeyFromBytes(raw), nil
}

// AddressFromPublicKey returns the c32check address of a public key.
func AddressFromPublicKey(pub *secp256k1.PublicKey, version byte) string {
	return EncodeAddress(version, Hash160(pub.SerializeCompressed()))
}

// Key returns the signing key.
func (i Identity) Key() *secp256k1.PrivateKey {
	return i.key
}

// Principal returns the account as a Clarity principal.
func (i Identity) Principal() clarity.Principal {
	return clarity.StandardPrincipal(i.Address)
}

// Pool is an ordered set of identities.
type Pool []Identity

// ByName returns the identity with the given name.
func (p Pool) ByName(name string) (Identity, bool) {
	for _, id := range p {
		if id.Name == name {
			return id, true
		}
	}
	return Identity{}, false
}

// ByAddress returns the identity owning address.
func (p Pool) ByAddress(address string) (Identity, bool) {
	for _, id := range p {
		if id.Address == address {
			return id, true
		}
	}
	return Identity{}, false
}
