package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/simnet/internal/clarity"
)

const metaHeight = "height"

// FundGenesis credits a principal once. Re-opening a persistent store does
// not fund it again.
func (o ops) FundGenesis(ctx context.Context, principal string, balance clarity.UInt) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO accounts (principal, balance, nonce)
		VALUES (?, ?, 0)
		ON CONFLICT(principal) DO NOTHING
	`, principal, balance.Dec())
	if err != nil {
		return fmt.Errorf("fund genesis: %w", err)
	}
	return nil
}

// SetBalance sets a principal's balance, creating the account if needed.
func (o ops) SetBalance(ctx context.Context, principal string, balance clarity.UInt) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO accounts (principal, balance, nonce)
		VALUES (?, ?, 0)
		ON CONFLICT(principal) DO UPDATE SET balance = excluded.balance
	`, principal, balance.Dec())
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

// IncrementNonce bumps a principal's nonce and returns the new value.
func (o ops) IncrementNonce(ctx context.Context, principal string) (uint64, error) {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO accounts (principal, balance, nonce)
		VALUES (?, '0', 1)
		ON CONFLICT(principal) DO UPDATE SET nonce = nonce + 1
	`, principal)
	if err != nil {
		return 0, fmt.Errorf("increment nonce: %w", err)
	}
	var nonce uint64
	if err := o.q.QueryRowContext(ctx, `SELECT nonce FROM accounts WHERE principal = ?`, principal).Scan(&nonce); err != nil {
		return 0, fmt.Errorf("increment nonce: %w", err)
	}
	return nonce, nil
}

// InsertContract records a deployment. Returns ErrDuplicate if the id is taken.
func (o ops) InsertContract(ctx context.Context, c ContractRecord) error {
	res, err := o.q.ExecContext(ctx, `
		INSERT INTO contracts (id, name, deployer, source_path, source, source_hash, height)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, c.ID, c.Name, c.Deployer, c.SourcePath, c.Source, c.SourceHash, c.Height)
	if err != nil {
		return fmt.Errorf("insert contract: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("insert contract %s: %w", c.ID, ErrDuplicate)
	}
	return nil
}

// SetVar stores a data var.
func (o ops) SetVar(ctx context.Context, contractID, name string, v clarity.Value) error {
	return o.putEntry(ctx, contractID, KindVar, name, "", v)
}

// SetMapEntry stores a map entry, replacing any existing value.
func (o ops) SetMapEntry(ctx context.Context, contractID, mapName string, key, v clarity.Value) error {
	return o.putEntry(ctx, contractID, KindMap, mapName, key.String(), v)
}

// InsertMapEntry stores a map entry only if the key is absent.
// It reports whether the entry was inserted.
func (o ops) InsertMapEntry(ctx context.Context, contractID, mapName string, key, v clarity.Value) (bool, error) {
	data, err := clarity.Encode(v)
	if err != nil {
		return false, fmt.Errorf("insert map entry: %w", err)
	}
	res, err := o.q.ExecContext(ctx, `
		INSERT INTO contract_data (contract_id, kind, name, key, value, repr)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(contract_id, kind, name, key) DO NOTHING
	`, contractID, KindMap, mapName, key.String(), string(data), v.String())
	if err != nil {
		return false, fmt.Errorf("insert map entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert map entry: %w", err)
	}
	return n == 1, nil
}

// DeleteMapEntry removes a map entry and reports whether it existed.
func (o ops) DeleteMapEntry(ctx context.Context, contractID, mapName string, key clarity.Value) (bool, error) {
	res, err := o.q.ExecContext(ctx, `
		DELETE FROM contract_data
		WHERE contract_id = ? AND kind = ? AND name = ? AND key = ?
	`, contractID, KindMap, mapName, key.String())
	if err != nil {
		return false, fmt.Errorf("delete map entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete map entry: %w", err)
	}
	return n == 1, nil
}

func (o ops) putEntry(ctx context.Context, contractID, kind, name, key string, v clarity.Value) error {
	data, err := clarity.Encode(v)
	if err != nil {
		return fmt.Errorf("put %s %s: %w", kind, name, err)
	}
	_, err = o.q.ExecContext(ctx, `
		INSERT INTO contract_data (contract_id, kind, name, key, value, repr)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(contract_id, kind, name, key) DO UPDATE
		SET value = excluded.value, repr = excluded.repr
	`, contractID, kind, name, key, string(data), v.String())
	if err != nil {
		return fmt.Errorf("put %s %s: %w", kind, name, err)
	}
	return nil
}

// InsertTransaction appends a mined transaction.
func (o ops) InsertTransaction(ctx context.Context, t TxRecord) error {
	args := t.Args
	if args == nil {
		args = []string{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	amount := t.Amount
	if amount == "" {
		amount = "0"
	}
	res, err := o.q.ExecContext(ctx, `
		INSERT INTO transactions (id, kind, sender, nonce, contract, function, args, amount, signature, height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, t.ID, t.Kind, t.Sender, t.Nonce, t.Contract, t.Function, string(argsJSON), amount, t.Signature, t.Height)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("insert transaction %s: %w", t.ID, ErrDuplicate)
	}
	return nil
}

// InsertReceipt records the outcome of a transaction.
// The transaction must already exist (foreign key constraint).
func (o ops) InsertReceipt(ctx context.Context, r Receipt) error {
	events := r.Events
	if events == nil {
		events = []string{}
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	_, err = o.q.ExecContext(ctx, `
		INSERT INTO receipts (tx_id, success, result, error, events, height)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.TxID, r.Success, r.Result, r.Error, string(eventsJSON), r.Height)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

// SetHeight records the chain tip.
func (o ops) SetHeight(ctx context.Context, height uint64) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO chain_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaHeight, strconv.FormatUint(height, 10))
	if err != nil {
		return fmt.Errorf("set height: %w", err)
	}
	return nil
}
