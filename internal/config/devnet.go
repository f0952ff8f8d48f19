// Package config loads the devnet definition: the address version and the
// funded accounts every fresh environment starts with.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tyler-smith/go-bip39"
	"gopkg.in/yaml.v3"

	"github.com/roach88/simnet/internal/clarity"
	"github.com/roach88/simnet/internal/identity"
)

//go:embed devnet.yaml
var defaultDevnet []byte

// Network names accepted in the config.
const (
	NetworkTestnet = "testnet"
	NetworkMainnet = "mainnet"
)

// Devnet is the decoded devnet file.
type Devnet struct {
	Network  string    `yaml:"network"`
	Accounts []Account `yaml:"accounts"`
}

// Account is one genesis account.
type Account struct {
	Name     string `yaml:"name"`
	Mnemonic string `yaml:"mnemonic"`
	Balance  string `yaml:"balance"` // µSTX, decimal
}

// ValidationError reports an invalid devnet field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("devnet %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Default returns the embedded devnet.
func Default() *Devnet {
	d, err := Parse(defaultDevnet)
	if err != nil {
		panic(fmt.Sprintf("embedded devnet is invalid: %v", err))
	}
	return d
}

// Load reads a devnet file from disk.
func Load(path string) (*Devnet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read devnet: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse decodes and validates a devnet document. Unknown fields are rejected.
func Parse(data []byte) (*Devnet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var d Devnet
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse devnet: %w", err)
	}
	if d.Network == "" {
		d.Network = NetworkTestnet
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks names, mnemonics and balances.
func (d *Devnet) Validate() error {
	if _, err := versionFor(d.Network); err != nil {
		return err
	}
	if len(d.Accounts) == 0 {
		return &ValidationError{Field: "accounts", Message: "at least one account is required"}
	}
	seen := make(map[string]bool, len(d.Accounts))
	for i, a := range d.Accounts {
		field := fmt.Sprintf("accounts[%d]", i)
		if a.Name == "" {
			return &ValidationError{Field: field + ".name", Message: "required"}
		}
		if seen[a.Name] {
			return &ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate account %q", a.Name)}
		}
		seen[a.Name] = true
		if !bip39.IsMnemonicValid(a.Mnemonic) {
			return &ValidationError{Field: field + ".mnemonic", Message: "not a valid BIP39 mnemonic"}
		}
		if _, err := clarity.ParseUIntDecimal(a.Balance); err != nil {
			return &ValidationError{Field: field + ".balance", Message: err.Error()}
		}
	}
	return nil
}

// AddressVersion returns the c32 version byte for the configured network.
func (d *Devnet) AddressVersion() byte {
	v, _ := versionFor(d.Network)
	return v
}

func versionFor(network string) (byte, error) {
	switch network {
	case NetworkTestnet:
		return identity.VersionTestnet, nil
	case NetworkMainnet:
		return identity.VersionMainnet, nil
	}
	return 0, &ValidationError{Field: "network", Message: fmt.Sprintf("unknown network %q (want testnet or mainnet)", network)}
}

// Identities derives the account pool in file order.
func (d *Devnet) Identities() (identity.Pool, error) {
	version := d.AddressVersion()
	pool := make(identity.Pool, 0, len(d.Accounts))
	for _, a := range d.Accounts {
		id, err := identity.FromMnemonic(a.Name, a.Mnemonic, version)
		if err != nil {
			return nil, err
		}
		pool = append(pool, id)
	}
	return pool, nil
}

// GenesisBalance returns the starting balance of the named account.
func (d *Devnet) GenesisBalance(name string) (clarity.UInt, bool) {
	for _, a := range d.Accounts {
		if a.Name == name {
			u, err := clarity.ParseUIntDecimal(a.Balance)
			return u, err == nil
		}
	}
	return clarity.UInt{}, false
}
