// Package session owns the dataset currently loaded by the service.
package session

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/couchcryptid/pgn-l0-service/internal/domain"
)

// ErrNoDataset is returned when nothing has been loaded yet.
var ErrNoDataset = errors.New("no dataset loaded")

// Store holds one dataset. Replace publishes a new one atomically; readers
// that already hold the previous dataset keep using it unchanged.
type Store struct {
	current atomic.Pointer[domain.Dataset]
	loads   atomic.Int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace publishes ds. A nil dataset is ignored.
func (s *Store) Replace(ds *domain.Dataset) {
	if ds == nil {
		return
	}
	s.current.Store(ds)
	s.loads.Add(1)
}

// Current returns the published dataset or ErrNoDataset.
func (s *Store) Current() (*domain.Dataset, error) {
	ds := s.current.Load()
	if ds == nil {
		return nil, ErrNoDataset
	}
	return ds, nil
}

// Loads returns how many datasets have been published.
func (s *Store) Loads() int64 {
	return s.loads.Load()
}

// CheckReadiness returns nil once a dataset has been published.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s.current.Load() == nil {
		return ErrNoDataset
	}
	return nil
}
