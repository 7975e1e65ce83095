package repository

import "testing"

func TestKVRepositoryUpsertAndDelete(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewKVRepository(db)

	if err := repo.Upsert("cart:session:abc", `{"items":[]}`); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := repo.Upsert("cart:session:abc", `{"items":[{"id":"1"}]}`); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	entry, err := repo.GetByKey("cart:session:abc")
	if err != nil || entry == nil {
		t.Fatalf("get failed: %v", err)
	}
	if entry.Value != `{"items":[{"id":"1"}]}` {
		t.Fatalf("upsert should overwrite, got %s", entry.Value)
	}

	if err := repo.Delete("cart:session:abc"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := repo.Delete("cart:session:missing"); err != nil {
		t.Fatalf("deleting a missing key should not fail: %v", err)
	}
	entry, err = repo.GetByKey("cart:session:abc")
	if err != nil {
		t.Fatalf("get after delete failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("entry should be gone")
	}
}
