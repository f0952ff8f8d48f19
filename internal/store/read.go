package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/simnet/internal/clarity"
)

// Account returns a principal's account. Unknown principals have a zero
// balance and nonce and ok=false.
func (o ops) Account(ctx context.Context, principal string) (Account, bool, error) {
	var balance string
	acct := Account{Principal: principal}
	err := o.q.QueryRowContext(ctx, `
		SELECT balance, nonce FROM accounts WHERE principal = ?
	`, principal).Scan(&balance, &acct.Nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return acct, false, nil
	}
	if err != nil {
		return Account{}, false, fmt.Errorf("read account: %w", err)
	}
	if acct.Balance, err = clarity.ParseUIntDecimal(balance); err != nil {
		return Account{}, false, fmt.Errorf("read account %s: %w", principal, err)
	}
	return acct, true, nil
}

// Balance returns a principal's µSTX balance, zero if unknown.
func (o ops) Balance(ctx context.Context, principal string) (clarity.UInt, error) {
	acct, _, err := o.Account(ctx, principal)
	return acct.Balance, err
}

// Contract returns a deployed contract by id.
func (o ops) Contract(ctx context.Context, id string) (ContractRecord, bool, error) {
	row := o.q.QueryRowContext(ctx, `
		SELECT id, name, deployer, source_path, source, source_hash, height
		FROM contracts WHERE id = ?
	`, id)
	var c ContractRecord
	err := row.Scan(&c.ID, &c.Name, &c.Deployer, &c.SourcePath, &c.Source, &c.SourceHash, &c.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return ContractRecord{}, false, nil
	}
	if err != nil {
		return ContractRecord{}, false, fmt.Errorf("read contract: %w", err)
	}
	return c, true, nil
}

// Contracts returns all deployed contracts in deployment order.
func (o ops) Contracts(ctx context.Context) ([]ContractRecord, error) {
	rows, err := o.q.QueryContext(ctx, `
		SELECT id, name, deployer, source_path, source, source_hash, height
		FROM contracts
		ORDER BY height ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}
	defer rows.Close()

	contracts := []ContractRecord{}
	for rows.Next() {
		var c ContractRecord
		if err := rows.Scan(&c.ID, &c.Name, &c.Deployer, &c.SourcePath, &c.Source, &c.SourceHash, &c.Height); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contracts: %w", err)
	}
	return contracts, nil
}

// Var returns a data var.
func (o ops) Var(ctx context.Context, contractID, name string) (clarity.Value, bool, error) {
	return o.entry(ctx, contractID, KindVar, name, "")
}

// MapEntry returns a map entry.
func (o ops) MapEntry(ctx context.Context, contractID, mapName string, key clarity.Value) (clarity.Value, bool, error) {
	return o.entry(ctx, contractID, KindMap, mapName, key.String())
}

func (o ops) entry(ctx context.Context, contractID, kind, name, key string) (clarity.Value, bool, error) {
	var data string
	err := o.q.QueryRowContext(ctx, `
		SELECT value FROM contract_data
		WHERE contract_id = ? AND kind = ? AND name = ? AND key = ?
	`, contractID, kind, name, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s %s: %w", kind, name, err)
	}
	v, err := clarity.Decode([]byte(data))
	if err != nil {
		return nil, false, fmt.Errorf("read %s %s: %w", kind, name, err)
	}
	return v, true, nil
}

// Entries returns every var and map entry of a contract, ordered by
// kind, name and key.
func (o ops) Entries(ctx context.Context, contractID string) ([]Entry, error) {
	rows, err := o.q.QueryContext(ctx, `
		SELECT kind, name, key, value FROM contract_data
		WHERE contract_id = ?
		ORDER BY kind COLLATE BINARY ASC, name COLLATE BINARY ASC, key COLLATE BINARY ASC
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e    Entry
			data string
		)
		if err := rows.Scan(&e.Kind, &e.Name, &e.Key, &data); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.Value, err = clarity.Decode([]byte(data)); err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", e.Name, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Transactions returns mined transactions in mining order, newest last.
// A limit of zero returns all of them; otherwise the most recent limit.
func (o ops) Transactions(ctx context.Context, limit int) ([]TxRecord, error) {
	query := `
		SELECT id, kind, sender, nonce, contract, function, args, amount, signature, height
		FROM (
			SELECT * FROM transactions
			ORDER BY height DESC, id COLLATE BINARY DESC
			LIMIT ?
		)
		ORDER BY height ASC, id COLLATE BINARY ASC
	`
	lim := limit
	if lim <= 0 {
		lim = -1 // SQLite: no limit
	}
	rows, err := o.q.QueryContext(ctx, query, lim)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []TxRecord{}
	for rows.Next() {
		var (
			t    TxRecord
			args string
		)
		if err := rows.Scan(&t.ID, &t.Kind, &t.Sender, &t.Nonce, &t.Contract, &t.Function, &args, &t.Amount, &t.Signature, &t.Height); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if err := json.Unmarshal([]byte(args), &t.Args); err != nil {
			return nil, fmt.Errorf("decode args of %s: %w", t.ID, err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// Receipt returns the receipt of a transaction.
func (o ops) Receipt(ctx context.Context, txID string) (Receipt, bool, error) {
	var (
		r      Receipt
		events string
	)
	err := o.q.QueryRowContext(ctx, `
		SELECT tx_id, success, result, error, events, height
		FROM receipts WHERE tx_id = ?
	`, txID).Scan(&r.TxID, &r.Success, &r.Result, &r.Error, &events, &r.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return Receipt{}, false, nil
	}
	if err != nil {
		return Receipt{}, false, fmt.Errorf("read receipt: %w", err)
	}
	if err := json.Unmarshal([]byte(events), &r.Events); err != nil {
		return Receipt{}, false, fmt.Errorf("decode events of %s: %w", txID, err)
	}
	return r, true, nil
}

// Height returns the recorded chain tip, zero for a fresh store.
func (o ops) Height(ctx context.Context) (uint64, error) {
	var value string
	err := o.q.QueryRowContext(ctx, `SELECT value FROM chain_meta WHERE key = ?`, metaHeight).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read height: %w", err)
	}
	h, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("read height: %w", err)
	}
	return h, nil
}
