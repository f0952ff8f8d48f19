// Package tx defines signed simulator transactions.
//
// A transaction's signing hash is SHA-256 with domain separation over the
// RFC 8785 canonical JSON of its unsigned payload. Signatures are 65-byte
// compact recoverable secp256k1 signatures, so the network derives the
// sender from the signature alone, the way Stacks nodes do. The transaction
// ID additionally covers the signature.
package tx

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ErrUnsigned is returned when an operation needs a signature that is absent.
var ErrUnsigned = errors.New("transaction is not signed")

// ErrBadSignature is returned when a signature cannot be recovered.
var ErrBadSignature = errors.New("invalid transaction signature")

// Kind distinguishes deployments from contract calls.
type Kind string

const (
	KindDeploy Kind = "deploy"
	KindCall   Kind = "call"
)

// Transaction is a signed request to change chain state.
type Transaction struct {
	Kind     Kind   `json:"kind"`
	Nonce    uint64 `json:"nonce"`
	Contract string `json:"contract"` // contract principal id, ST1....name

	// Function and Args are set for calls. Args hold value literals.
	Function string   `json:"function,omitempty"`
	Args     []string `json:"args,omitempty"`

	// Amount is the most µSTX the call may move out of the sender's account,
	// as a decimal string. Empty means zero.
	Amount string `json:"amount,omitempty"`

	// SourceHash is set for deployments.
	SourceHash string `json:"source_hash,omitempty"`

	// Signature is the hex compact signature over SigningHash.
	Signature string `json:"signature,omitempty"`
}

func (t *Transaction) payload() map[string]any {
	amount := t.Amount
	if amount == "" {
		amount = "0"
	}
	args := t.Args
	if args == nil {
		args = []string{}
	}
	p := map[string]any{
		"kind":     string(t.Kind),
		"nonce":    t.Nonce,
		"contract": t.Contract,
		"amount":   amount,
		"args":     args,
	}
	if t.Function != "" {
		p["function"] = t.Function
	}
	if t.SourceHash != "" {
		p["source_hash"] = t.SourceHash
	}
	return p
}

// SigningHash returns the 32-byte hash the sender signs.
func (t *Transaction) SigningHash() ([]byte, error) {
	canonical, err := MarshalCanonical(t.payload())
	if err != nil {
		return nil, fmt.Errorf("signing hash: %w", err)
	}
	return hashWithDomain(DomainSigning, canonical), nil
}

// Sign signs the transaction in place with key.
func (t *Transaction) Sign(key *secp256k1.PrivateKey) error {
	hash, err := t.SigningHash()
	if err != nil {
		return err
	}
	t.Signature = hex.EncodeToString(ecdsa.SignCompact(key, hash, true))
	return nil
}

// RecoverSigner returns the public key that produced the signature.
func (t *Transaction) RecoverSigner() (*secp256k1.PublicKey, error) {
	if t.Signature == "" {
		return nil, ErrUnsigned
	}
	sig, err := hex.DecodeString(t.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	hash, err := t.SigningHash()
	if err != nil {
		return nil, err
	}
	pub, compressed, err := ecdsa.RecoverCompact(sig, hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !compressed {
		return nil, fmt.Errorf("%w: uncompressed key", ErrBadSignature)
	}
	return pub, nil
}

// ID returns the hex transaction ID, which commits to the signature.
func (t *Transaction) ID() (string, error) {
	if t.Signature == "" {
		return "", ErrUnsigned
	}
	p := t.payload()
	p["signature"] = t.Signature
	canonical, err := MarshalCanonical(p)
	if err != nil {
		return "", fmt.Errorf("transaction id: %w", err)
	}
	return hex.EncodeToString(hashWithDomain(DomainTxID, canonical)), nil
}
