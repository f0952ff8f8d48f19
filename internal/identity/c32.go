package identity

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // hash160 is defined in terms of RIPEMD-160
)

// c32Alphabet is Crockford base32 as used by Stacks addresses.
const c32Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// Address versions for single-signature accounts.
const (
	VersionMainnet byte = 22 // SP...
	VersionTestnet byte = 26 // ST...
)

// ErrInvalidAddress is returned for malformed or mis-checksummed addresses.
var ErrInvalidAddress = errors.New("invalid address")

var thirtyTwo = big.NewInt(32)

// c32Encode encodes data in c32, keeping one '0' per leading zero byte.
func c32Encode(data []byte) string {
	n := new(big.Int).SetBytes(data)
	var out []byte
	mod := new(big.Int)
	for n.Sign() > 0 {
		n.DivMod(n, thirtyTwo, mod)
		out = append(out, c32Alphabet[mod.Int64()])
	}
	for _, b := range data {
		if b != 0 {
			break
		}
		out = append(out, '0')
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// c32Decode reverses c32Encode.
func c32Decode(s string) ([]byte, error) {
	zeros := 0
	for zeros < len(s) && s[zeros] == '0' {
		zeros++
	}
	n := new(big.Int)
	for i := zeros; i < len(s); i++ {
		idx := strings.IndexByte(c32Alphabet, s[i])
		if idx < 0 {
			return nil, fmt.Errorf("%w: character %q not in c32 alphabet", ErrInvalidAddress, s[i])
		}
		n.Mul(n, thirtyTwo)
		n.Add(n, big.NewInt(int64(idx)))
	}
	return append(make([]byte, zeros), n.Bytes()...), nil
}

func c32Checksum(version byte, data []byte) []byte {
	first := sha256.Sum256(append([]byte{version}, data...))
	second := sha256.Sum256(first[:])
	return second[:4]
}

// EncodeAddress produces the c32check address for a hash160.
func EncodeAddress(version byte, hash160 []byte) string {
	payload := append(append([]byte{}, hash160...), c32Checksum(version, hash160)...)
	return "S" + string(c32Alphabet[version&0x1f]) + c32Encode(payload)
}

// DecodeAddress validates a c32check address and returns its version and hash160.
func DecodeAddress(addr string) (byte, []byte, error) {
	if len(addr) < 3 || addr[0] != 'S' {
		return 0, nil, fmt.Errorf("%w: %q must start with S", ErrInvalidAddress, addr)
	}
	version := strings.IndexByte(c32Alphabet, addr[1])
	if version < 0 {
		return 0, nil, fmt.Errorf("%w: bad version character %q", ErrInvalidAddress, addr[1])
	}
	raw, err := c32Decode(addr[2:])
	if err != nil {
		return 0, nil, err
	}
	if len(raw) != 24 {
		return 0, nil, fmt.Errorf("%w: %q decodes to %d bytes, want 24", ErrInvalidAddress, addr, len(raw))
	}
	hash160, sum := raw[:20], raw[20:]
	if !bytes.Equal(sum, c32Checksum(byte(version), hash160)) {
		return 0, nil, fmt.Errorf("%w: checksum mismatch for %q", ErrInvalidAddress, addr)
	}
	return byte(version), hash160, nil
}

// Hash160 is RIPEMD160(SHA256(data)).
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}
