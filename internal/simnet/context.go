package simnet

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/simnet/internal/clarity"
	"github.com/roach88/simnet/internal/manifest"
	"github.com/roach88/simnet/internal/store"
)

// STX transfer failure codes, as returned by stx-transfer?.
var (
	TransferInsufficientBalance = clarity.NewUInt(1)
	TransferSameSender          = clarity.NewUInt(2)
	TransferNonPositive         = clarity.NewUInt(3)
)

// Context is the execution environment of one contract call. All reads and
// writes go through the enclosing store transaction.
type Context struct {
	ctx      context.Context
	tx       *store.Tx
	spec     *manifest.Contract
	id       string
	fn       string
	readOnly bool
	events   []string

	Sender            clarity.Principal // tx-sender
	ContractPrincipal clarity.Principal // the contract's own principal
	Deployer          clarity.Principal
	Amount            clarity.UInt // µSTX the sender attached to the call
	BlockHeight       uint64
}

// Function returns the name of the executing function.
func (c *Context) Function() string {
	return c.fn
}

// ReadOnly reports whether writes are forbidden.
func (c *Context) ReadOnly() bool {
	return c.readOnly
}

func (c *Context) abort(format string, args ...any) error {
	return &RuntimeError{Contract: c.id, Function: c.fn, Message: fmt.Sprintf(format, args...)}
}

func (c *Context) storeError(err error) error {
	return c.abort("store: %v", err)
}

func (c *Context) checkWritable(what string) error {
	if c.readOnly {
		return c.abort("%s: %v", what, ErrReadOnly)
	}
	return nil
}

// Constant returns a declared constant.
func (c *Context) Constant(name string) (clarity.Value, error) {
	v, ok := c.spec.Constants[name]
	if !ok {
		return nil, c.abort("undeclared constant %q", name)
	}
	return v, nil
}

// UIntConstant returns a declared uint constant.
func (c *Context) UIntConstant(name string) (clarity.UInt, error) {
	v, err := c.Constant(name)
	if err != nil {
		return clarity.UInt{}, err
	}
	u, ok := v.(clarity.UInt)
	if !ok {
		return clarity.UInt{}, c.abort("constant %q is %s, not a uint", name, v)
	}
	return u, nil
}

// Err returns (err uN) for a declared error constant.
func (c *Context) Err(name string) (clarity.Response, error) {
	code, ok := c.spec.Errors[name]
	if !ok {
		return clarity.Response{}, c.abort("undeclared error %q", name)
	}
	return clarity.Err(code), nil
}

// VarGet reads a data var.
func (c *Context) VarGet(name string) (clarity.Value, error) {
	if _, ok := c.spec.DataVars[name]; !ok {
		return nil, c.abort("undeclared data var %q", name)
	}
	v, ok, err := c.tx.Var(c.ctx, c.id, name)
	if err != nil {
		return nil, c.storeError(err)
	}
	if !ok {
		return c.spec.DataVars[name].Initial, nil
	}
	return v, nil
}

// VarSet writes a data var. The value must match the declared type.
func (c *Context) VarSet(name string, v clarity.Value) error {
	decl, ok := c.spec.DataVars[name]
	if !ok {
		return c.abort("undeclared data var %q", name)
	}
	if err := c.checkWritable("var-set " + name); err != nil {
		return err
	}
	if !decl.Type.Admits(v) {
		return c.abort("var-set %s: %s is not a %s", name, v, decl.Type)
	}
	if err := c.tx.SetVar(c.ctx, c.id, name, v); err != nil {
		return c.storeError(err)
	}
	return nil
}

func (c *Context) mapDecl(name string, key clarity.Value) (manifest.Map, error) {
	decl, ok := c.spec.Maps[name]
	if !ok {
		return manifest.Map{}, c.abort("undeclared map %q", name)
	}
	if !decl.Key.Admits(key) {
		return manifest.Map{}, c.abort("map %s: key %s is not a %s", name, key, decl.Key)
	}
	return decl, nil
}

// MapGet returns (some value) for a present key and none otherwise.
func (c *Context) MapGet(name string, key clarity.Value) (clarity.Optional, error) {
	if _, err := c.mapDecl(name, key); err != nil {
		return clarity.None, err
	}
	v, ok, err := c.tx.MapEntry(c.ctx, c.id, name, key)
	if err != nil {
		return clarity.None, c.storeError(err)
	}
	if !ok {
		return clarity.None, nil
	}
	return clarity.Some(v), nil
}

// MapSet writes a map entry, replacing any existing value.
func (c *Context) MapSet(name string, key, v clarity.Value) error {
	decl, err := c.mapDecl(name, key)
	if err != nil {
		return err
	}
	if err := c.checkWritable("map-set " + name); err != nil {
		return err
	}
	if !decl.Value.Admits(v) {
		return c.abort("map-set %s: %s is not a %s", name, v, decl.Value)
	}
	if err := c.tx.SetMapEntry(c.ctx, c.id, name, key, v); err != nil {
		return c.storeError(err)
	}
	return nil
}

// MapInsert writes a map entry only if the key is absent.
func (c *Context) MapInsert(name string, key, v clarity.Value) (bool, error) {
	decl, err := c.mapDecl(name, key)
	if err != nil {
		return false, err
	}
	if err := c.checkWritable("map-insert " + name); err != nil {
		return false, err
	}
	if !decl.Value.Admits(v) {
		return false, c.abort("map-insert %s: %s is not a %s", name, v, decl.Value)
	}
	inserted, err := c.tx.InsertMapEntry(c.ctx, c.id, name, key, v)
	if err != nil {
		return false, c.storeError(err)
	}
	return inserted, nil
}

// MapDelete removes a map entry and reports whether it existed.
func (c *Context) MapDelete(name string, key clarity.Value) (bool, error) {
	if _, err := c.mapDecl(name, key); err != nil {
		return false, err
	}
	if err := c.checkWritable("map-delete " + name); err != nil {
		return false, err
	}
	deleted, err := c.tx.DeleteMapEntry(c.ctx, c.id, name, key)
	if err != nil {
		return false, c.storeError(err)
	}
	return deleted, nil
}

// StxBalance returns a principal's µSTX balance.
func (c *Context) StxBalance(p clarity.Principal) (clarity.UInt, error) {
	bal, err := c.tx.Balance(c.ctx, p.ID())
	if err != nil {
		return clarity.UInt{}, c.storeError(err)
	}
	return bal, nil
}

// StxTransfer moves µSTX from sender to recipient and returns (ok true) or
// (err u1|u2|u3). The sender must be tx-sender or the contract itself.
func (c *Context) StxTransfer(amount clarity.UInt, sender, recipient clarity.Principal) (clarity.Response, error) {
	if err := c.checkWritable("stx-transfer?"); err != nil {
		return clarity.Response{}, err
	}
	if sender != c.Sender && sender != c.ContractPrincipal {
		return clarity.Response{}, c.abort("stx-transfer? from %s: not tx-sender or contract", sender.ID())
	}
	if amount.IsZero() {
		return clarity.Err(TransferNonPositive), nil
	}
	if sender == recipient {
		return clarity.Err(TransferSameSender), nil
	}

	from, err := c.StxBalance(sender)
	if err != nil {
		return clarity.Response{}, err
	}
	remaining, err := from.Sub(amount)
	if errors.Is(err, clarity.ErrUnderflow) {
		return clarity.Err(TransferInsufficientBalance), nil
	}
	to, err := c.StxBalance(recipient)
	if err != nil {
		return clarity.Response{}, err
	}
	credited, err := to.Add(amount)
	if err != nil {
		return clarity.Response{}, c.abort("stx-transfer? to %s: %v", recipient.ID(), err)
	}

	if err := c.tx.SetBalance(c.ctx, sender.ID(), remaining); err != nil {
		return clarity.Response{}, c.storeError(err)
	}
	if err := c.tx.SetBalance(c.ctx, recipient.ID(), credited); err != nil {
		return clarity.Response{}, c.storeError(err)
	}
	c.Print(clarity.Tuple{
		"type":      clarity.StringASCII("stx_transfer_event"),
		"amount":    amount,
		"sender":    sender,
		"recipient": recipient,
	})
	return clarity.Ok(clarity.Bool(true)), nil
}

// Print records an event on the transaction receipt.
func (c *Context) Print(v clarity.Value) {
	c.events = append(c.events, v.String())
}

// Events returns the events printed so far.
func (c *Context) Events() []string {
	return append([]string(nil), c.events...)
}
