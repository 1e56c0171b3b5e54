package tokenstore

import (
	"context"
	"sync"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/models"
)

// Memory backend keeps the credential for the process lifetime only
type Memory struct {
	mu sync.Mutex
	c  *models.Credential
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.c == nil {
		return models.Credential{}, apperrors.ErrCredentialNotFound
	}
	return *m.c, nil
}

func (m *Memory) Save(_ context.Context, c models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.c = &c
	return nil
}

func (m *Memory) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.c = nil
	return nil
}
