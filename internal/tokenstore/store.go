package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/models"
)

// Backend persists the credential between console runs
type Backend interface {
	// Load the saved credential
	// Has to return apperrors.ErrCredentialNotFound if nothing saved
	Load(ctx context.Context) (models.Credential, error)

	// Save overwrites whatever was saved before
	Save(ctx context.Context, c models.Credential) error

	// Delete the saved credential. Deleting nothing is not an error
	Delete(ctx context.Context) error
}

// Store is the only owner of the credential.
// Reads are served from memory, writes go to the backend first
type Store struct {
	mu      sync.RWMutex
	current models.Credential

	backend Backend
	logger  logger.Logger
}

// Open loads the credential persisted by a previous run.
// A backend that fails to load is logged and treated as empty
func Open(ctx context.Context, backend Backend, l logger.Logger) *Store {
	s := &Store{backend: backend, logger: l}

	c, err := backend.Load(ctx)
	switch {
	case err == nil:
		s.current = c
		l.Debug("Credential loaded from token store")
	case errors.Is(err, apperrors.ErrCredentialNotFound):
		l.Debug("No stored credential")
	default:
		l.Warn("Failed to load stored credential, starting without it", "error", err)
	}

	return s
}

// Get returns the current credential and false if there is none
func (s *Store) Get() (models.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current, !s.current.IsZero()
}

// Set overwrites the credential. The next request sees the new value
func (s *Store) Set(ctx context.Context, c models.Credential) error {
	if c.IsZero() {
		return errors.New("access token must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Save(ctx, c); err != nil {
		return fmt.Errorf("error while saving credential. Err: %w", err)
	}
	s.current = c

	return nil
}

// Clear drops both tokens at once.
// Memory is cleared even if the backend fails, so the session never outlives a failed delete
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = models.Credential{}

	if err := s.backend.Delete(ctx); err != nil {
		s.logger.Error("Failed to delete stored credential", "error", err)
		return fmt.Errorf("error while deleting credential. Err: %w", err)
	}

	return nil
}
