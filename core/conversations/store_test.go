package conversations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreRoundTripsCallerRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("expected store to open, got %v", err)
	}

	record := Record{
		Turns: []StoredTurn{
			{Role: "user", Content: "Привет"},
			{Role: "assistant", Content: "Здравствуйте! Чем могу помочь?"},
		},
		Language: "ru",
	}
	if err := store.Save("+15550100", record); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("expected store to reopen, got %v", err)
	}

	loaded, ok := reopened.Get("+15550100")
	if !ok {
		t.Fatalf("expected record for caller")
	}
	if loaded.Language != "ru" {
		t.Fatalf("expected persisted language ru, got %q", loaded.Language)
	}
	if len(loaded.Turns) != 2 || loaded.Turns[0].Content != "Привет" {
		t.Fatalf("expected persisted turns, got %+v", loaded.Turns)
	}
	if loaded.UpdatedAt.IsZero() {
		t.Fatalf("expected updated timestamp to be set")
	}
}

func TestStoreClearRemovesCaller(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("expected store to open, got %v", err)
	}

	if err := store.Save("+15550100", Record{Language: "de"}); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}
	if err := store.Clear("+15550100"); err != nil {
		t.Fatalf("expected clear to succeed, got %v", err)
	}

	if _, ok := store.Get("+15550100"); ok {
		t.Fatalf("expected record to be gone")
	}

	// Clearing an unknown caller is a no-op.
	if err := store.Clear("+15550199"); err != nil {
		t.Fatalf("expected clearing unknown caller to succeed, got %v", err)
	}
}

func TestStoreTreatsCorruptFileAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to seed corrupt file: %v", err)
	}

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("expected corrupt store to open empty, got %v", err)
	}

	if _, ok := store.Get("+15550100"); ok {
		t.Fatalf("expected empty store")
	}
}
