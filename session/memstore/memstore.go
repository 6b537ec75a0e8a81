package memstore

import (
	"sync"

	"github.com/jrsteele09/go-tender-client/session"
)

var _ session.Store = (*MemStore)(nil)

// MemStore is an in-process session.Store. Values are lost when the process exits.
type MemStore struct {
	values map[string]string
	lock   sync.RWMutex
}

func New() *MemStore {
	return &MemStore{
		values: make(map[string]string),
	}
}

func (s *MemStore) Get(key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemStore) Set(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.values[key] = value
	return nil
}

func (s *MemStore) Clear(keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}
