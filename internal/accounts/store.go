// Package accounts persists the configured account list as a flat JSON
// array. The file is read and rewritten wholesale on every mutation.
package accounts

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/abelikov/keywatch/internal/domain"
)

// Store is a file-backed account list. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns all accounts. A missing file is an empty list, not an error.
func (s *Store) Load() ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() ([]domain.Account, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}

	var list []domain.Account
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse accounts: %w", err)
	}
	return list, nil
}

// Add appends an account unless one with the same credential already exists.
// Returns false when the account was a duplicate.
func (s *Store) Add(acc domain.Account) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadLocked()
	if err != nil {
		return false, err
	}
	for _, existing := range list {
		if existing.Credential == acc.Credential {
			return false, nil
		}
	}

	list = append(list, acc)
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshal accounts: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return false, fmt.Errorf("write accounts: %w", err)
	}
	return true, nil
}
