package reciter

import (
	"testing"
)

func testVector(fill float64) []float64 {
	v := make([]float64, 98)
	v[0] = fill
	return v
}

func TestStore_UpsertAndGet(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	rec, err := store.Upsert("Mishary Alafasy", StyleHafs, testVector(1))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	got, err := store.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Mishary Alafasy" || got.Style != StyleHafs {
		t.Fatalf("got %q/%q", got.Name, got.Style)
	}
	if len(got.FeatureVector) != 98 || got.FeatureVector[0] != 1 {
		t.Fatalf("feature vector not preserved: len=%d", len(got.FeatureVector))
	}
}

func TestStore_UpsertUpdatesSameName(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	first, err := store.Upsert("Warsh Reader", StyleWarsh, testVector(1))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second, err := store.Upsert("Warsh Reader", StyleWarsh, testVector(0.5))
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("update created new ID: %s != %s", second.ID, first.ID)
	}
	if second.FeatureVector[0] != 0.5 {
		t.Fatalf("feature vector not updated: %v", second.FeatureVector[0])
	}
	if store.Count() != 1 {
		t.Fatalf("count = %d, want 1", store.Count())
	}
}

func TestStore_Persistence(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	rec, err := store.Upsert("Persistent Reader", StyleHafs, testVector(1))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.SetSamplePath(rec.ID, "/tmp/sample.mp3"); err != nil {
		t.Fatalf("SetSamplePath: %v", err)
	}

	// Переоткрываем хранилище с того же каталога
	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore reopen: %v", err)
	}
	if reopened.Count() != 1 {
		t.Fatalf("count after reopen = %d, want 1", reopened.Count())
	}
	got, err := reopened.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.SamplePath != "/tmp/sample.mp3" {
		t.Fatalf("sample path = %q", got.SamplePath)
	}
}

func TestStore_Delete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	rec, err := store.Upsert("To Delete", StyleHafs, testVector(1))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.Delete(rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Count() != 0 {
		t.Fatalf("count = %d, want 0", store.Count())
	}
	if err := store.Delete(rec.ID); err == nil {
		t.Fatal("expected error deleting missing record")
	}
}

func TestStore_GetByName(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if _, ok := store.GetByName("Nobody"); ok {
		t.Fatal("expected miss on empty store")
	}

	if _, err := store.Upsert("Named Reader", StyleHafs, testVector(1)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	rec, ok := store.GetByName("Named Reader")
	if !ok {
		t.Fatal("expected hit")
	}
	if rec.Name != "Named Reader" {
		t.Fatalf("name = %q", rec.Name)
	}
}

func TestInferStyle(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Warsh An Nafi", StyleWarsh},
		{"Assim Al Hakeem", StyleAssim},
		{"Mishary Alafasy", StyleHafs},
		{"", StyleHafs},
	}
	for _, tt := range tests {
		if got := InferStyle(tt.name); got != tt.want {
			t.Errorf("InferStyle(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
