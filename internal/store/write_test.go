package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/simnet/internal/clarity"
)

func TestFundGenesis_OnlyOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.FundGenesis(ctx, "ST1", clarity.NewUInt(500)); err != nil {
		t.Fatalf("FundGenesis() failed: %v", err)
	}
	if err := s.SetBalance(ctx, "ST1", clarity.NewUInt(200)); err != nil {
		t.Fatalf("SetBalance() failed: %v", err)
	}
	if err := s.FundGenesis(ctx, "ST1", clarity.NewUInt(500)); err != nil {
		t.Fatalf("second FundGenesis() failed: %v", err)
	}

	bal, err := s.Balance(ctx, "ST1")
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	if bal.Dec() != "200" {
		t.Errorf("Balance() = %s, want 200", bal.Dec())
	}
}

func TestBalance_UnknownPrincipalIsZero(t *testing.T) {
	s := createTestStore(t)

	acct, ok, err := s.Account(context.Background(), "ST-nobody")
	if err != nil {
		t.Fatalf("Account() failed: %v", err)
	}
	if ok {
		t.Error("Account() ok = true for unknown principal")
	}
	if !acct.Balance.IsZero() || acct.Nonce != 0 {
		t.Errorf("Account() = %+v, want zero", acct)
	}
}

func TestIncrementNonce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for want := uint64(1); want <= 3; want++ {
		got, err := s.IncrementNonce(ctx, "ST1")
		if err != nil {
			t.Fatalf("IncrementNonce() failed: %v", err)
		}
		if got != want {
			t.Errorf("IncrementNonce() = %d, want %d", got, want)
		}
	}
}

func TestInsertContract_Duplicate(t *testing.T) {
	s := createTestStore(t)
	createTestContract(t, s, "ST1.c")

	err := s.InsertContract(context.Background(), ContractRecord{ID: "ST1.c", Name: "c", Deployer: "ST1", Height: 2})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("InsertContract() duplicate error = %v, want ErrDuplicate", err)
	}
}

func TestVars_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestContract(t, s, "ST1.c")

	if _, ok, err := s.Var(ctx, "ST1.c", "pool"); err != nil || ok {
		t.Fatalf("Var() before set = ok %v, err %v", ok, err)
	}

	if err := s.SetVar(ctx, "ST1.c", "pool", clarity.NewUInt(10)); err != nil {
		t.Fatalf("SetVar() failed: %v", err)
	}
	if err := s.SetVar(ctx, "ST1.c", "pool", clarity.NewUInt(25)); err != nil {
		t.Fatalf("SetVar() overwrite failed: %v", err)
	}

	v, ok, err := s.Var(ctx, "ST1.c", "pool")
	if err != nil || !ok {
		t.Fatalf("Var() = ok %v, err %v", ok, err)
	}
	if v.String() != "u25" {
		t.Errorf("Var() = %s, want u25", v)
	}
}

func TestMapEntries(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestContract(t, s, "ST1.c")

	key := clarity.StandardPrincipal("ST1")
	team := clarity.List{clarity.NewUInt(1), clarity.NewUInt(2)}

	inserted, err := s.InsertMapEntry(ctx, "ST1.c", "teams", key, team)
	if err != nil || !inserted {
		t.Fatalf("InsertMapEntry() = %v, %v", inserted, err)
	}
	inserted, err = s.InsertMapEntry(ctx, "ST1.c", "teams", key, clarity.List{})
	if err != nil || inserted {
		t.Fatalf("InsertMapEntry() existing key = %v, %v", inserted, err)
	}

	got, ok, err := s.MapEntry(ctx, "ST1.c", "teams", key)
	if err != nil || !ok {
		t.Fatalf("MapEntry() = ok %v, err %v", ok, err)
	}
	if got.String() != "(list u1 u2)" {
		t.Errorf("MapEntry() = %s, want (list u1 u2)", got)
	}

	if err := s.SetMapEntry(ctx, "ST1.c", "teams", key, clarity.List{clarity.NewUInt(3)}); err != nil {
		t.Fatalf("SetMapEntry() failed: %v", err)
	}

	var repr string
	if err := s.db.QueryRow(`SELECT repr FROM contract_data WHERE name = 'teams'`).Scan(&repr); err != nil {
		t.Fatalf("query repr: %v", err)
	}
	if repr != "(list u3)" {
		t.Errorf("repr = %q, want (list u3)", repr)
	}

	deleted, err := s.DeleteMapEntry(ctx, "ST1.c", "teams", key)
	if err != nil || !deleted {
		t.Fatalf("DeleteMapEntry() = %v, %v", deleted, err)
	}
	deleted, err = s.DeleteMapEntry(ctx, "ST1.c", "teams", key)
	if err != nil || deleted {
		t.Fatalf("DeleteMapEntry() missing key = %v, %v", deleted, err)
	}
}

func TestContractData_RequiresContract(t *testing.T) {
	s := createTestStore(t)

	err := s.SetVar(context.Background(), "ST1.missing", "pool", clarity.NewUInt(1))
	if err == nil {
		t.Error("SetVar() for unknown contract should violate the foreign key")
	}
}
