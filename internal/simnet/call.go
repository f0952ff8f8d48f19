package simnet

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/roach88/simnet/internal/clarity"
	"github.com/roach88/simnet/internal/manifest"
	"github.com/roach88/simnet/internal/store"
	"github.com/roach88/simnet/internal/tx"
)

// CallRequest invokes a public function. Amount is the most µSTX the call
// may move out of the sender's account. Args are value literals.
type CallRequest struct {
	ContractName string
	FnName       string
	SenderKey    string
	Amount       uint64
	Args         []string
}

// CallResult is the outcome of a mined call.
type CallResult struct {
	Success bool
	// Value is the payload of the response, nil when execution aborted.
	Value clarity.Value
	// Error is empty on success. Failed responses read "ERR-NAME (err uN)"
	// when the code is a declared error; aborts read "runtime error: ...".
	Error    string
	Response clarity.Value
	TxID     string
	Height   uint64
	Events   []string
}

// QueryRequest invokes a read-only function. Sender is an address, an
// identity name or empty for the contract deployer.
type QueryRequest struct {
	ContractName string
	FnName       string
	Args         []string
	Sender       string
}

// QueryResult holds the value a read-only function returned.
type QueryResult struct {
	Value clarity.Value
}

func (n *Network) newContext(ctx context.Context, w *store.Tx, d *deployed, sender clarity.Principal, amount clarity.UInt, height uint64, fn string, readOnly bool) *Context {
	return &Context{
		ctx:               ctx,
		tx:                w,
		spec:              d.spec,
		id:                d.record.ID,
		fn:                fn,
		readOnly:          readOnly,
		Sender:            sender,
		ContractPrincipal: d.principal(),
		Deployer:          clarity.StandardPrincipal(d.record.Deployer),
		Amount:            amount,
		BlockHeight:       height,
	}
}

// resolveFunction finds fn on the contract and checks its access.
func (n *Network) resolveFunction(contractName, fnName string, want manifest.Access) (*deployed, manifest.Function, error) {
	d, err := n.lookup(contractName)
	if err != nil {
		return nil, manifest.Function{}, err
	}
	fn, ok := d.spec.Function(fnName)
	if !ok {
		return nil, manifest.Function{}, &Error{Code: ErrCodeFunctionNotFound, Message: "no such function", Contract: contractName, Function: fnName}
	}
	if fn.Access != want {
		code := ErrCodeNotPublic
		if want == manifest.AccessReadOnly {
			code = ErrCodeNotReadOnly
		}
		return nil, manifest.Function{}, &Error{Code: code, Message: fmt.Sprintf("function is %s", fn.Access), Contract: contractName, Function: fnName}
	}
	return d, fn, nil
}

// parseArgs parses literals and checks them against the signature.
func parseArgs(contractName string, fn manifest.Function, raw []string) ([]clarity.Value, error) {
	bad := func(format string, args ...any) error {
		return &Error{Code: ErrCodeBadArguments, Message: fmt.Sprintf(format, args...), Contract: contractName, Function: fn.Name}
	}
	if len(raw) != len(fn.Args) {
		return nil, bad("expects %d arguments, got %d", len(fn.Args), len(raw))
	}
	values := make([]clarity.Value, len(raw))
	for i, lit := range raw {
		v, err := clarity.Parse(lit)
		if err != nil {
			return nil, bad("argument %s: %v", fn.Args[i].Name, err)
		}
		if !fn.Args[i].Type.Admits(v) {
			return nil, bad("argument %s: %s is not a %s", fn.Args[i].Name, v, fn.Args[i].Type)
		}
		values[i] = v
	}
	return values, nil
}

func literals(values []clarity.Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

// CallPublic signs and mines a call to a public function.
//
// Request problems (unknown contract or function, wrong access, bad
// arguments, bad key) are returned as *Error and nothing is mined. Every
// call that reaches execution is mined and consumes the sender's nonce,
// whatever its outcome.
func (n *Network) CallPublic(ctx context.Context, req CallRequest) (*CallResult, error) {
	n.exec.Lock()
	defer n.exec.Unlock()

	d, fn, err := n.resolveFunction(req.ContractName, req.FnName, manifest.AccessPublic)
	if err != nil {
		return nil, err
	}
	args, err := parseArgs(req.ContractName, fn, req.Args)
	if err != nil {
		return nil, err
	}
	key, err := parseSenderKey(req.SenderKey)
	if err != nil {
		return nil, err
	}
	amount := clarity.NewUInt(req.Amount)

	st, err := n.sign(ctx, &tx.Transaction{
		Kind:     tx.KindCall,
		Contract: d.record.ID,
		Function: fn.Name,
		Args:     literals(args),
		Amount:   amount.Dec(),
	}, key)
	if err != nil {
		return nil, err
	}
	height := n.clock.Peek()

	w, err := n.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer w.Rollback()

	sender := clarity.StandardPrincipal(st.sender)
	before, err := w.Balance(ctx, st.sender)
	if err != nil {
		return nil, err
	}

	c := n.newContext(ctx, w, d, sender, amount, height, fn.Name, false)
	value, execErr := d.impl.Call(c, fn.Name, args)

	resp, abort := n.checkOutcome(ctx, w, fn, value, execErr, st.sender, before, amount)
	result := &CallResult{TxID: st.id, Height: height}
	status := statusSuccess

	switch {
	case abort != "":
		status = statusAbort
		result.Error = "runtime error: " + abort
	case !resp.Ok:
		status = statusFailure
		result.Value = resp.Value
		result.Response = resp
		result.Error = errorText(d.spec, resp)
	default:
		result.Success = true
		result.Value = resp.Value
		result.Response = resp
		result.Events = c.Events()
	}

	receipt := store.Receipt{Success: result.Success, Error: result.Error, Events: result.Events}
	if result.Response != nil {
		receipt.Result = result.Response.String()
	}

	if result.Success {
		if err := n.mine(ctx, w, st, receipt, height); err != nil {
			return nil, err
		}
		if err := w.Commit(); err != nil {
			return nil, err
		}
	} else {
		if err := w.Rollback(); err != nil {
			return nil, err
		}
		if err := n.mineFresh(ctx, st, receipt, height); err != nil {
			return nil, err
		}
	}
	n.advance(tx.KindCall, status)

	entry := log.WithFields(txFields(st)).WithFields(logrus.Fields{"status": status, "height": height})
	if result.Error != "" {
		entry = entry.WithField("error", result.Error)
	}
	entry.Debug("Call mined")
	return result, nil
}

// checkOutcome validates what a public function produced. It returns the
// response, or a non-empty abort message when the call must be reverted
// as a runtime error.
func (n *Network) checkOutcome(ctx context.Context, w *store.Tx, fn manifest.Function, value clarity.Value, execErr error, sender string, before, amount clarity.UInt) (clarity.Response, string) {
	if execErr != nil {
		var re *RuntimeError
		if errors.As(execErr, &re) {
			return clarity.Response{}, re.Message
		}
		return clarity.Response{}, execErr.Error()
	}
	resp, ok := value.(clarity.Response)
	if !ok {
		return clarity.Response{}, fmt.Sprintf("%s returned %v, not a response", fn.Name, value)
	}
	if fn.Returns != nil && !fn.Returns.Admits(resp) {
		return clarity.Response{}, fmt.Sprintf("%s returned %s, declared %s", fn.Name, resp, fn.Returns)
	}
	if !resp.Ok {
		return resp, ""
	}

	after, err := w.Balance(ctx, sender)
	if err != nil {
		return clarity.Response{}, fmt.Sprintf("store: %v", err)
	}
	if spent, err := before.Sub(after); err == nil && spent.Cmp(amount) > 0 {
		return clarity.Response{}, fmt.Sprintf("post-condition violated: sender moved %s, allowed %s", spent, amount)
	}
	return resp, ""
}

// errorText renders a failed response, naming the error constant when the
// code is declared.
func errorText(spec *manifest.Contract, resp clarity.Response) string {
	if code, ok := resp.Value.(clarity.UInt); ok {
		if name, found := spec.ErrorName(code); found {
			return name + " " + resp.String()
		}
	}
	return resp.String()
}

// Query runs a read-only function. Writes abort the query; nothing it does
// is ever committed.
func (n *Network) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	n.exec.Lock()
	defer n.exec.Unlock()

	d, fn, err := n.resolveFunction(req.ContractName, req.FnName, manifest.AccessReadOnly)
	if err != nil {
		return nil, err
	}
	args, err := parseArgs(req.ContractName, fn, req.Args)
	if err != nil {
		return nil, err
	}

	sender := clarity.StandardPrincipal(d.record.Deployer)
	if req.Sender != "" {
		p, err := clarity.ParsePrincipal(n.resolveAccount(req.Sender))
		if err != nil {
			return nil, &Error{Code: ErrCodeBadArguments, Message: fmt.Sprintf("sender: %v", err), Contract: req.ContractName, Function: fn.Name}
		}
		sender = p
	}

	w, err := n.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer w.Rollback()

	c := n.newContext(ctx, w, d, sender, clarity.NewUInt(0), n.clock.Current(), fn.Name, true)
	value, err := d.impl.Call(c, fn.Name, args)
	n.metrics.queries.Inc()
	if err != nil {
		var re *RuntimeError
		if errors.As(err, &re) {
			re.Contract, re.Function = d.record.ID, fn.Name
		}
		return nil, fmt.Errorf("query %s.%s: %w", req.ContractName, fn.Name, err)
	}
	if fn.Returns != nil && !fn.Returns.Admits(value) {
		return nil, &RuntimeError{Contract: d.record.ID, Function: fn.Name, Message: fmt.Sprintf("%s returned %v, declared %s", fn.Name, value, fn.Returns)}
	}
	return &QueryResult{Value: value}, nil
}

// resolveAccount maps an identity name to its address.
func (n *Network) resolveAccount(s string) string {
	if id, ok := n.accounts.ByName(s); ok {
		return id.Address
	}
	return s
}
