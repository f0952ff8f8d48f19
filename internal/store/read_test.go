package store

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/roach88/simnet/internal/clarity"
)

func insertTestTx(t *testing.T, s *Store, id string, height uint64, success bool) {
	t.Helper()
	ctx := context.Background()
	err := s.InsertTransaction(ctx, TxRecord{
		ID:        id,
		Kind:      "call",
		Sender:    "ST1",
		Nonce:     height,
		Contract:  "ST1.c",
		Function:  "f",
		Args:      []string{"u1"},
		Signature: "sig",
		Height:    height,
	})
	if err != nil {
		t.Fatalf("InsertTransaction() failed: %v", err)
	}
	err = s.InsertReceipt(ctx, Receipt{
		TxID:    id,
		Success: success,
		Result:  "(ok true)",
		Events:  []string{"print"},
		Height:  height,
	})
	if err != nil {
		t.Fatalf("InsertReceipt() failed: %v", err)
	}
}

func TestTransactions_OrderAndLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for h := uint64(1); h <= 4; h++ {
		insertTestTx(t, s, fmt.Sprintf("tx-%d", h), h, true)
	}

	all, err := s.Transactions(ctx, 0)
	if err != nil {
		t.Fatalf("Transactions() failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("Transactions() len = %d, want 4", len(all))
	}
	if all[0].ID != "tx-1" || all[3].ID != "tx-4" {
		t.Errorf("Transactions() order = %s..%s", all[0].ID, all[3].ID)
	}
	if !reflect.DeepEqual(all[0].Args, []string{"u1"}) {
		t.Errorf("Args = %v", all[0].Args)
	}
	if all[0].Amount != "0" {
		t.Errorf("Amount = %q, want default 0", all[0].Amount)
	}

	recent, err := s.Transactions(ctx, 2)
	if err != nil {
		t.Fatalf("Transactions(2) failed: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "tx-3" || recent[1].ID != "tx-4" {
		t.Errorf("Transactions(2) = %+v", recent)
	}
}

func TestTransactions_Duplicate(t *testing.T) {
	s := createTestStore(t)
	insertTestTx(t, s, "tx-1", 1, true)

	err := s.InsertTransaction(context.Background(), TxRecord{ID: "tx-1", Kind: "call", Sender: "ST1", Contract: "c", Signature: "s", Height: 1})
	if err == nil {
		t.Error("InsertTransaction() duplicate should fail")
	}
}

func TestReceipt(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	insertTestTx(t, s, "tx-1", 1, false)

	r, ok, err := s.Receipt(ctx, "tx-1")
	if err != nil || !ok {
		t.Fatalf("Receipt() = ok %v, err %v", ok, err)
	}
	if r.Success {
		t.Error("Receipt().Success = true, want false")
	}
	if !reflect.DeepEqual(r.Events, []string{"print"}) {
		t.Errorf("Events = %v", r.Events)
	}

	if _, ok, err := s.Receipt(ctx, "tx-missing"); err != nil || ok {
		t.Errorf("Receipt(missing) = ok %v, err %v", ok, err)
	}
}

func TestContracts_DeploymentOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"ST1.b", "ST1.a"} {
		err := s.InsertContract(ctx, ContractRecord{ID: id, Name: id[4:], Deployer: "ST1", Height: uint64(i + 1)})
		if err != nil {
			t.Fatalf("InsertContract(%s) failed: %v", id, err)
		}
	}

	got, err := s.Contracts(ctx)
	if err != nil {
		t.Fatalf("Contracts() failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "ST1.b" || got[1].ID != "ST1.a" {
		t.Errorf("Contracts() = %+v", got)
	}

	c, ok, err := s.Contract(ctx, "ST1.a")
	if err != nil || !ok {
		t.Fatalf("Contract() = ok %v, err %v", ok, err)
	}
	if c.Name != "a" {
		t.Errorf("Contract().Name = %q", c.Name)
	}
}

func TestEntries_Ordered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestContract(t, s, "ST1.c")

	if err := s.SetVar(ctx, "ST1.c", "z", clarity.Bool(true)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMapEntry(ctx, "ST1.c", "scores", clarity.NewUInt(2), clarity.NewUInt(20)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMapEntry(ctx, "ST1.c", "scores", clarity.NewUInt(1), clarity.NewUInt(10)); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Entries(ctx, "ST1.c")
	if err != nil {
		t.Fatalf("Entries() failed: %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Kind+":"+e.Name+":"+e.Key+"="+e.Value.String())
	}
	want := []string{"map:scores:u1=u10", "map:scores:u2=u20", "var:z:=true"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}
