package credstore

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/cityai/internal/client/models"
)

// MemoryStore is a process-local Store, used by tests and by sessions that
// must not touch the disk.
type MemoryStore struct {
	mu   sync.RWMutex
	pair models.CredentialPair
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(context.Context) (models.CredentialPair, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return pairFromValues([]byte(m.pair.AccessToken), []byte(m.pair.RefreshToken))
}

func (m *MemoryStore) Set(_ context.Context, pair models.CredentialPair) error {
	if !pair.Complete() {
		return ErrIncompletePair
	}
	m.mu.Lock()
	m.pair = pair
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.pair = models.CredentialPair{}
	m.mu.Unlock()
	return nil
}
