package simnet

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simnet/internal/clarity"
	"github.com/roach88/simnet/internal/identity"
)

func TestMain(m *testing.M) {
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newTestNetwork(t *testing.T) *Network {
	t.Helper()
	n, err := Init(context.Background(), Options{Registry: testRegistry()})
	require.NoError(t, err)
	t.Cleanup(func() { n.Close() })
	return n
}

func mustAccount(t *testing.T, n *Network, name string) identity.Identity {
	t.Helper()
	id, ok := n.Account(name)
	require.True(t, ok, "account %s", name)
	return id
}

func deployCounter(t *testing.T, n *Network) *DeployResult {
	t.Helper()
	res, err := n.Deploy(context.Background(), DeployRequest{
		ContractName: "counter",
		SenderKey:    mustAccount(t, n, "deployer").PrivateKey,
		Path:         counterManifest,
	})
	require.NoError(t, err)
	return res
}

func call(t *testing.T, n *Network, sender, fn string, amount uint64, args ...string) *CallResult {
	t.Helper()
	res, err := n.CallPublic(context.Background(), CallRequest{
		ContractName: "counter",
		FnName:       fn,
		SenderKey:    mustAccount(t, n, sender).PrivateKey,
		Amount:       amount,
		Args:         args,
	})
	require.NoError(t, err)
	return res
}

func query(t *testing.T, n *Network, fn string, args ...string) clarity.Value {
	t.Helper()
	res, err := n.Query(context.Background(), QueryRequest{ContractName: "counter", FnName: fn, Args: args})
	require.NoError(t, err)
	return res.Value
}

func TestInit_FreshEnvironment(t *testing.T) {
	n := newTestNetwork(t)

	accounts := n.Accounts()
	require.Len(t, accounts, 4)
	assert.Equal(t, "deployer", accounts[0].Name)
	assert.Equal(t, uint64(0), n.BlockHeight())

	bal, err := n.Balance(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "100000000000000", bal.Dec())
}

func TestInit_SameIdentitiesEveryTime(t *testing.T) {
	a := newTestNetwork(t)
	b := newTestNetwork(t)
	for i := range a.Accounts() {
		assert.Equal(t, a.Accounts()[i].Address, b.Accounts()[i].Address)
	}
}

func TestDeploy(t *testing.T) {
	n := newTestNetwork(t)
	res := deployCounter(t, n)

	deployer := mustAccount(t, n, "deployer")
	assert.Equal(t, deployer.Address+".counter", res.ContractID)
	assert.Equal(t, uint64(1), res.Height)
	assert.Equal(t, uint64(1), n.BlockHeight())

	assert.Equal(t, clarity.Bool(true), query(t, n, "get-init-ran"))
	assert.Equal(t, "u0", query(t, n, "get-count").String())

	txs, err := n.Transactions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "deploy", txs[0].Kind)
	assert.Equal(t, deployer.Address, txs[0].Sender)
}

func TestDeploy_Errors(t *testing.T) {
	n := newTestNetwork(t)
	key := mustAccount(t, n, "deployer").PrivateKey
	ctx := context.Background()

	deployCounter(t, n)
	_, err := n.Deploy(ctx, DeployRequest{ContractName: "counter", SenderKey: key, Path: counterManifest})
	assert.Equal(t, ErrCodeContractExists, ErrorCodeOf(err))

	_, err = n.Deploy(ctx, DeployRequest{ContractName: "other", SenderKey: "nothex", Path: counterManifest})
	assert.Equal(t, ErrCodeBadSignature, ErrorCodeOf(err))

	_, err = n.Deploy(ctx, DeployRequest{ContractName: "other", SenderKey: key, Path: "testdata/missing.cue"})
	assert.ErrorIs(t, err, os.ErrNotExist)

	unknown := filepath.Join(t.TempDir(), "unknown.cue")
	require.NoError(t, os.WriteFile(unknown, []byte(`contract: x: {implementation: "nothing@v1", functions: f: access: "read-only"}`), 0o644))
	_, err = n.Deploy(ctx, DeployRequest{ContractName: "x", SenderKey: key, Path: unknown})
	assert.Equal(t, ErrCodeUnknownImplementation, ErrorCodeOf(err))

	assert.Equal(t, uint64(1), n.BlockHeight(), "failed deployments mine nothing")
}

func TestCallPublic_CommitsOnOk(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)

	res := call(t, n, "user1", "increment", 0)
	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
	assert.Equal(t, "u1", res.Value.String())
	assert.Equal(t, "(ok u1)", res.Response.String())
	assert.Equal(t, []string{"u1"}, res.Events)
	assert.Equal(t, uint64(2), res.Height)
	assert.NotEmpty(t, res.TxID)

	assert.Equal(t, "u1", query(t, n, "get-count").String())

	receipt, ok, err := n.Receipt(context.Background(), res.TxID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, receipt.Success)
	assert.Equal(t, "(ok u1)", receipt.Result)
}

func TestCallPublic_ErrRollsBackButConsumesNonce(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)
	ctx := context.Background()
	user1 := mustAccount(t, n, "user1")

	res := call(t, n, "user1", "write-then-fail", 0)
	assert.False(t, res.Success)
	assert.Equal(t, "ERR-REJECTED (err u1)", res.Error)
	assert.Equal(t, "u1", res.Value.String())
	assert.Empty(t, res.Events)

	assert.Equal(t, "u0", query(t, n, "get-count").String(), "writes of a failed call are discarded")

	acct, _, err := n.Store().Account(ctx, user1.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acct.Nonce)
	assert.Equal(t, uint64(2), n.BlockHeight())

	receipt, ok, err := n.Receipt(ctx, res.TxID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, receipt.Success)
	assert.Equal(t, "(err u1)", receipt.Result)

	// The next call signs with the bumped nonce and gets a distinct id.
	next := call(t, n, "user1", "write-then-fail", 0)
	assert.NotEqual(t, res.TxID, next.TxID)
}

func TestCallPublic_UndeclaredErrorCode(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)

	res := call(t, n, "user1", "fail-untagged", 0)
	assert.False(t, res.Success)
	assert.Equal(t, "(err u42)", res.Error)
}

func TestCallPublic_RuntimeAbort(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)

	res := call(t, n, "user1", "boom", 0)
	assert.False(t, res.Success)
	assert.Nil(t, res.Value)
	assert.Nil(t, res.Response)
	assert.Equal(t, "runtime error: boom at height 2", res.Error)
}

func TestCallPublic_TransfersWithinAttachedAmount(t *testing.T) {
	n := newTestNetwork(t)
	res := deployCounter(t, n)
	ctx := context.Background()

	out := call(t, n, "user1", "deposit", 500, "u500")
	require.True(t, out.Success, out.Error)
	require.Len(t, out.Events, 1)
	assert.True(t, strings.Contains(out.Events[0], "stx_transfer_event"))

	bal, err := n.Balance(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "99999999999500", bal.Dec())

	contractBal, err := n.Balance(ctx, res.ContractID)
	require.NoError(t, err)
	assert.Equal(t, "500", contractBal.Dec())

	byName, err := n.Balance(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "500", byName.Dec())

	user1 := mustAccount(t, n, "user1")
	assert.Equal(t, "(some u500)", query(t, n, "get-deposit", user1.Address).String())
	assert.Equal(t, "none", query(t, n, "get-deposit", mustAccount(t, n, "user2").Address).String())
}

func TestCallPublic_PostConditionViolated(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)

	res := call(t, n, "user1", "deposit", 100, "u500")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "post-condition violated")

	bal, err := n.Balance(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "100000000000000", bal.Dec())
}

func TestCallPublic_TransferFailureCodes(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)

	zero := call(t, n, "user1", "deposit", 0, "u0")
	assert.Equal(t, "(err u3)", zero.Error)

	self := call(t, n, "deployer", "pay-deployer", 10, "u10")
	assert.Equal(t, "(err u2)", self.Error)

	// u1 collides with the contract's own ERR-REJECTED, so the name is shown.
	broke := call(t, n, "user1", "deposit", 0, "u200000000000000")
	assert.Equal(t, "ERR-REJECTED (err u1)", broke.Error)
}

func TestCallPublic_RequestErrors(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)
	key := mustAccount(t, n, "user1").PrivateKey
	ctx := context.Background()

	tests := []struct {
		name string
		req  CallRequest
		code ErrorCode
	}{
		{"unknown contract", CallRequest{ContractName: "nope", FnName: "increment", SenderKey: key}, ErrCodeContractNotFound},
		{"unknown function", CallRequest{ContractName: "counter", FnName: "nope", SenderKey: key}, ErrCodeFunctionNotFound},
		{"read-only function", CallRequest{ContractName: "counter", FnName: "get-count", SenderKey: key}, ErrCodeNotPublic},
		{"missing argument", CallRequest{ContractName: "counter", FnName: "deposit", SenderKey: key}, ErrCodeBadArguments},
		{"wrong type", CallRequest{ContractName: "counter", FnName: "deposit", SenderKey: key, Args: []string{"true"}}, ErrCodeBadArguments},
		{"unparseable", CallRequest{ContractName: "counter", FnName: "deposit", SenderKey: key, Args: []string{"(list"}}, ErrCodeBadArguments},
		{"bad key", CallRequest{ContractName: "counter", FnName: "increment", SenderKey: "00"}, ErrCodeBadSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.CallPublic(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, ErrorCodeOf(err), err.Error())
		})
	}
	assert.Equal(t, uint64(1), n.BlockHeight(), "rejected requests mine nothing")
}

func TestCallPublic_FullContractID(t *testing.T) {
	n := newTestNetwork(t)
	res := deployCounter(t, n)

	out, err := n.CallPublic(context.Background(), CallRequest{
		ContractName: res.ContractID,
		FnName:       "increment",
		SenderKey:    mustAccount(t, n, "user1").PrivateKey,
	})
	require.NoError(t, err)
	assert.True(t, out.Success)

	_, err = n.CallPublic(context.Background(), CallRequest{
		ContractName: mustAccount(t, n, "user1").Address + ".counter",
		FnName:       "increment",
		SenderKey:    mustAccount(t, n, "user1").PrivateKey,
	})
	assert.True(t, IsNotFound(err))
}

func TestQuery_ReadOnlyCannotWrite(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)

	_, err := n.Query(context.Background(), QueryRequest{ContractName: "counter", FnName: "sneaky-write"})
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
	assert.ErrorContains(t, err, "read-only")

	assert.Equal(t, "u0", query(t, n, "get-count").String())
}

func TestCallPublic_MapInsertAndDelete(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)
	user1 := mustAccount(t, n, "user1")

	res := call(t, n, "user1", "register", 0)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "(some true)", query(t, n, "get-member", user1.Address).String())

	res = call(t, n, "user1", "register", 0)
	assert.False(t, res.Success)
	assert.Equal(t, "ERR-REJECTED (err u1)", res.Error)

	res = call(t, n, "user1", "unregister", 0)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "(ok true)", res.Response.String())
	assert.Equal(t, "none", query(t, n, "get-member", user1.Address).String())

	res = call(t, n, "user1", "unregister", 0)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "(ok false)", res.Response.String())

	res = call(t, n, "user1", "register-height", 0)
	assert.False(t, res.Success)
	assert.Equal(t, "runtime error: map members: key u6 is not a principal", res.Error)
}

func TestContext_Describe(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)

	assert.Equal(t, `(tuple (function "describe") (read-only true))`, query(t, n, "describe").String())

	res := call(t, n, "user1", "describe-call", 0)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, `(ok (tuple (function "describe-call") (read-only false)))`, res.Response.String())
}

func TestQuery_ReadOnlyCannotChangeMaps(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)
	user1 := mustAccount(t, n, "user1")
	require.True(t, call(t, n, "user1", "register", 0).Success)

	for _, fn := range []string{"sneaky-insert", "sneaky-delete"} {
		t.Run(fn, func(t *testing.T) {
			_, err := n.Query(context.Background(), QueryRequest{ContractName: "counter", FnName: fn, Sender: "user1"})
			require.Error(t, err)
			assert.True(t, IsRuntimeError(err))
			assert.ErrorContains(t, err, "read-only")
		})
	}
	assert.Equal(t, "(some true)", query(t, n, "get-member", user1.Address).String())
}

func TestQuery_Errors(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)
	ctx := context.Background()

	_, err := n.Query(ctx, QueryRequest{ContractName: "counter", FnName: "increment"})
	assert.Equal(t, ErrCodeNotReadOnly, ErrorCodeOf(err))

	_, err = n.Query(ctx, QueryRequest{ContractName: "counter", FnName: "get-deposit", Args: []string{"u1"}})
	assert.True(t, IsBadArguments(err))

	_, err = n.Query(ctx, QueryRequest{ContractName: "counter", FnName: "get-count", Sender: "not-a-principal"})
	assert.True(t, IsBadArguments(err))

	res, err := n.Query(ctx, QueryRequest{ContractName: "counter", FnName: "get-count", Sender: "user2"})
	require.NoError(t, err)
	assert.Equal(t, "u0", res.Value.String())
}

func TestQuery_DoesNotMine(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)

	query(t, n, "get-count")
	query(t, n, "get-count")
	assert.Equal(t, uint64(1), n.BlockHeight())
}

func TestMetrics(t *testing.T) {
	n := newTestNetwork(t)
	deployCounter(t, n)

	call(t, n, "user1", "increment", 0)
	call(t, n, "user1", "write-then-fail", 0)
	call(t, n, "user1", "boom", 0)
	query(t, n, "get-count")

	m := n.metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("deploy", statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("call", statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("call", statusFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("call", statusAbort)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.blockHeight))
}

func TestInit_PersistentStoreReloadsContracts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devnet.db")
	ctx := context.Background()

	first, err := Init(ctx, Options{StorePath: path, Registry: testRegistry()})
	require.NoError(t, err)
	deployCounter(t, first)
	call(t, first, "user1", "increment", 0)
	call(t, first, "user1", "deposit", 50, "u50")
	require.NoError(t, first.Close())

	second, err := Init(ctx, Options{StorePath: path, Registry: testRegistry()})
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, uint64(3), second.BlockHeight())
	require.Len(t, second.Contracts(), 1)
	assert.Equal(t, "u1", query(t, second, "get-count").String())

	bal, err := second.Balance(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "99999999999950", bal.Dec(), "genesis funding is not repeated")

	res := call(t, second, "user1", "increment", 0)
	assert.Equal(t, "u2", res.Value.String())
	assert.Equal(t, uint64(4), res.Height)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a@v1", newCounter))
	assert.Error(t, r.Register("a@v1", newCounter))
	assert.Panics(t, func() { r.MustRegister("a@v1", newCounter) })

	_, ok := r.Lookup("a@v1")
	assert.True(t, ok)
	assert.Equal(t, []string{"a@v1"}, r.IDs())
}
