package tx

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainSigning = "simnet/tx-signing/v1"
	DomainTxID    = "simnet/tx-id/v1"
	DomainSource  = "simnet/contract-source/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return h.Sum(nil)
}

// SourceHash returns the hex content hash of a contract source file.
func SourceHash(source []byte) string {
	return hex.EncodeToString(hashWithDomain(DomainSource, source))
}
