// Package memory provides a process-local key/value store.
// It backs `storage.type: memory` and doubles as a test fake for the core services.
package memory

import (
	"context"
	"sync"

	"newsreader/internal/repository"
)

// KVStore is a map guarded by a RWMutex.
// Fault hooks let tests simulate a failing device store.
type KVStore struct {
	mu   sync.RWMutex
	data map[string]string

	// SetErr, when non-nil, is returned by Set for every key it is consulted with.
	SetErr func(key string) error
	// GetErr, when non-nil, is returned by Get for every key it is consulted with.
	GetErr func(key string) error

	sets int
}

var _ repository.KeyValueStore = (*KVStore)(nil)

// NewKVStore returns an empty store.
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string]string)}
}

func (s *KVStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.GetErr != nil {
		if err := s.GetErr(key); err != nil {
			return "", false, err
		}
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *KVStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.SetErr != nil {
		if err := s.SetErr(key); err != nil {
			return err
		}
	}
	s.data[key] = value
	return nil
}

func (s *KVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// SetCalls reports how many times Set was attempted, including failed attempts.
func (s *KVStore) SetCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sets
}
