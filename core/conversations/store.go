package conversations

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StoredTurn is one persisted conversation turn.
type StoredTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Record is everything persisted for one caller between sessions.
type Record struct {
	Turns []StoredTurn `json:"turns"`
	// Language is the committed recognition language, when the session
	// locked one.
	Language  string    `json:"language,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists per-caller conversation records to a single JSON file so a
// returning caller resumes with their history and recognition language. A
// missing or corrupt file is treated as empty.
type Store struct {
	mu   sync.Mutex
	path string
	data map[string]Record
}

func NewStore(path string) (*Store, error) {
	store := &Store{path: path, data: map[string]Record{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read conversation store: %w", err)
	}

	if err := json.Unmarshal(raw, &store.data); err != nil {
		// Start over rather than refuse the session.
		store.data = map[string]Record{}
	}

	return store, nil
}

func (s *Store) Save(callerID string, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.UpdatedAt = time.Now()
	s.data[callerID] = record
	return s.flush()
}

func (s *Store) Get(callerID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.data[callerID]
	return record, ok
}

func (s *Store) Clear(callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[callerID]; !ok {
		return nil
	}

	delete(s.data, callerID)
	return s.flush()
}

func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create conversation store directory: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write conversation store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace conversation store: %w", err)
	}

	return nil
}
