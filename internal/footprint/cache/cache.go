// Flat JSON memo of resolved products. Loaded whole at startup, rewritten
// whole on every put. Keys are the raw caller-supplied query strings; two
// spellings of the same product are distinct entries on purpose (preserved
// source behavior).
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"carbon-index-service/internal/footprint/model"
)

type Store struct {
	path string

	mu      sync.RWMutex
	entries map[string]model.MatchResult
}

// Load reads the cache file into memory; a missing file yields an empty
// store, any other error is surfaced.
func Load(path string) (*Store, error) {
	s := &Store{path: path, entries: make(map[string]model.MatchResult)}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &s.entries); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Get(key string) (model.MatchResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Put stores the entry and flushes the whole file. The write happens under
// the lock so concurrent puts cannot interleave partial states; a failed
// flush rolls the entry back so memory never diverges from disk.
func (s *Store) Put(key string, v model.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.entries[key]
	s.entries[key] = v
	b, err := json.Marshal(s.entries)
	if err == nil {
		err = os.WriteFile(s.path, b, 0o644)
	}
	if err != nil {
		if had {
			s.entries[key] = prev
		} else {
			delete(s.entries, key)
		}
		return err
	}
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
