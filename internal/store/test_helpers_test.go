package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestContract inserts a minimal contract so contract_data rows satisfy
// their foreign key.
func createTestContract(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.InsertContract(context.Background(), ContractRecord{
		ID:         id,
		Name:       "c",
		Deployer:   "ST000000000000000000002AMW42H",
		SourcePath: "c.cue",
		Source:     "contract: c: {}",
		SourceHash: "test-hash",
		Height:     1,
	})
	if err != nil {
		t.Fatalf("InsertContract() failed: %v", err)
	}
}
