package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/models"
)

type tokenStore interface {
	Get() (models.Credential, bool)
	Set(ctx context.Context, c models.Credential) error
	Clear(ctx context.Context) error
}

type authAPI interface {
	// Exchange username and password for a credential
	// Has to return apperrors.ErrBadCredentials if the API rejects them
	Login(ctx context.Context, username string, password string) (models.Credential, error)

	// Profile of the stored credential owner
	Me(ctx context.Context) (models.Profile, error)

	// Profile for a credential that is not stored yet
	MeWithToken(ctx context.Context, access string) (models.Profile, error)

	// Best effort server side logout
	Logout(ctx context.Context, refresh string) error
}

// Manager owns the session: the credential in the token store and the cached profile.
// Both change together under one lock, so no reader sees a profile without a credential
type Manager struct {
	store  tokenStore
	auth   authAPI
	logger logger.Logger

	// Serializes Login calls
	loginMu sync.Mutex

	mu      sync.RWMutex
	state   State
	profile *models.Profile
	loading bool

	// Bumped by every transition out of a session.
	// A profile fetch applies its result only if the generation did not change meanwhile
	generation uint64

	subsMu sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int

	disposed bool
}

func NewManager(store tokenStore, auth authAPI, l logger.Logger) *Manager {
	return &Manager{
		store:  store,
		auth:   auth,
		logger: l,
		state:  StateUnknown,
		subs:   make(map[int]func(Snapshot)),
	}
}

// Init validates the stored credential once.
// A credential the API does not accept for the profile is cleared, whatever the reason
func (m *Manager) Init(ctx context.Context) Snapshot {
	cred, ok := m.store.Get()
	if !ok {
		m.transition(func() {
			m.state = StateAnonymous
			m.profile = nil
			m.loading = false
		})
		m.logger.Info("No stored credential, session is anonymous")
		return m.Snapshot()
	}

	m.mu.Lock()
	m.loading = true
	gen := m.generation
	m.mu.Unlock()

	profile, err := m.auth.MeWithToken(ctx, cred.Access)
	if err != nil {
		m.logger.Warn("Stored credential rejected, clearing it", "error", err)
		m.expire(ctx, gen)
		return m.Snapshot()
	}

	if !m.apply(gen, profile) {
		m.logger.Info("Session changed while validating stored credential, result dropped")
	} else {
		m.logger.Info("Session restored", "username", profile.Username)
	}

	return m.Snapshot()
}

// Dispose drops all subscribers. The stored credential is kept for the next run
func (m *Manager) Dispose() {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	m.subs = make(map[int]func(Snapshot))
	m.disposed = true
}

// Login exchanges credentials for a token, fetches the profile with it and only then
// stores both. Any failure leaves the state and the token store untouched
func (m *Manager) Login(ctx context.Context, username string, password string) (models.Profile, error) {
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	cred, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return models.Profile{}, err
	}

	profile, err := m.auth.MeWithToken(ctx, cred.Access)
	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		// The API refused the token it has just issued. There was no session to lose,
		// so this must not read as one ending
		return models.Profile{}, fmt.Errorf("login: %w", &apperrors.APIError{
			Status:  http.StatusBadGateway,
			Message: "Bookstore API rejected the token it issued",
		})
	case err != nil:
		return models.Profile{}, fmt.Errorf("login: %w", err)
	}

	// A login starts a new generation: fetches issued for an older session are dropped
	var storeErr error
	m.transition(func() {
		if storeErr = m.store.Set(ctx, cred); storeErr != nil {
			return
		}
		m.state = StateAuthenticated
		m.profile = &profile
		m.loading = false
		m.generation++
	})
	if storeErr != nil {
		return models.Profile{}, fmt.Errorf("login: %w", storeErr)
	}

	m.logger.Info("Logged in", "username", profile.Username, "role", profile.Role)
	return profile, nil
}

// Logout ends the session. Calling it without a session is a no-op.
// The API is told first, its answer is ignored
func (m *Manager) Logout(ctx context.Context) {
	cred, ok := m.store.Get()
	if ok {
		if err := m.auth.Logout(ctx, cred.Refresh); err != nil {
			m.logger.Debug("Server side logout failed, ignoring", "error", err)
		}
	}

	m.mu.RLock()
	gen := m.generation
	m.mu.RUnlock()

	m.expire(ctx, gen)
}

// Expire ends the current session unconditionally
func (m *Manager) Expire() {
	m.mu.RLock()
	gen := m.generation
	m.mu.RUnlock()

	m.expire(context.Background(), gen)
}

// ExpireToken is the reaction to a 401 from the API: the session that sent access is over,
// whatever request saw it. A 401 for a token that is no longer stored (the operator logged
// in again meanwhile) is ignored
func (m *Manager) ExpireToken(access string) {
	m.mu.RLock()
	gen := m.generation
	m.mu.RUnlock()

	if cred, ok := m.store.Get(); ok && cred.Access != access {
		m.logger.Debug("401 for a replaced credential, session kept")
		return
	}

	m.expire(context.Background(), gen)
}

// RefreshProfile re-reads the profile of the current session, e.g. after it was edited
func (m *Manager) RefreshProfile(ctx context.Context) (models.Profile, error) {
	m.mu.RLock()
	gen := m.generation
	state := m.state
	m.mu.RUnlock()

	if state != StateAuthenticated {
		return models.Profile{}, apperrors.ErrNotAuthenticated
	}

	profile, err := m.auth.Me(ctx)
	if err != nil {
		return models.Profile{}, err
	}

	if !m.apply(gen, profile) {
		return models.Profile{}, fmt.Errorf("refresh profile: session changed: %w", apperrors.ErrNotAuthenticated)
	}

	return profile, nil
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{State: m.state, Loading: m.loading}
	if m.profile != nil {
		p := *m.profile
		s.Profile = &p
	}
	return s
}

func (m *Manager) IsAdmin() bool { return m.Snapshot().IsAdmin() }
func (m *Manager) HasPermission(p string) bool { return m.Snapshot().HasPermission(p) }
func (m *Manager) IsManager() bool { return m.Snapshot().IsManager() }
func (m *Manager) IsStaff() bool { return m.Snapshot().IsStaff() }
func (m *Manager) IsAuthenticated() bool { return m.Snapshot().IsAuthenticated() }

// Subscribe calls fn after every state change until the returned function is called
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	if m.disposed {
		return func() {}
	}

	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	return func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		delete(m.subs, id)
	}
}

// LogTransitions subscribes l to every state change with the role of the new session
func (m *Manager) LogTransitions(l logger.Logger) (unsubscribe func()) {
	return m.Subscribe(func(s Snapshot) {
		args := []any{"state", s.State.String()}
		if s.Profile != nil {
			args = append(args,
				"username", s.Profile.Username,
				"is_admin", s.IsAdmin(),
				"is_manager", s.IsManager(),
				"is_staff", s.IsStaff(),
			)
		}
		l.Info("Session state changed", args...)
	})
}

// expire clears the store and profile in one step unless a newer session already replaced gen
func (m *Manager) expire(ctx context.Context, gen uint64) {
	m.transitionIf(gen, func() {
		if err := m.store.Clear(ctx); err != nil {
			// Memory is cleared anyway, the session is over
			m.logger.Error("Failed to clear token store", "error", err)
		}
		m.state = StateAnonymous
		m.profile = nil
		m.loading = false
		m.generation++
	})
}

// apply caches a fetched profile if the session that requested it is still current
func (m *Manager) apply(gen uint64, profile models.Profile) bool {
	return m.transitionIf(gen, func() {
		if _, ok := m.store.Get(); !ok {
			m.state = StateAnonymous
			m.profile = nil
			m.loading = false
			return
		}
		m.state = StateAuthenticated
		m.profile = &profile
		m.loading = false
	})
}

func (m *Manager) transition(fn func()) {
	m.mu.Lock()
	before := m.state
	fn()
	after := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(before, after)
}

func (m *Manager) transitionIf(gen uint64, fn func()) bool {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return false
	}
	before := m.state
	fn()
	after := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(before, after)
	return true
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{State: m.state, Loading: m.loading}
	if m.profile != nil {
		p := *m.profile
		s.Profile = &p
	}
	return s
}

func (m *Manager) notify(before State, after Snapshot) {
	if before == after.State {
		return
	}

	m.subsMu.Lock()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subsMu.Unlock()

	for _, fn := range subs {
		fn(after)
	}
}

// IsSessionEnd reports whether err means the caller has no session anymore
func IsSessionEnd(err error) bool {
	return errors.Is(err, apperrors.ErrUnauthenticated) || errors.Is(err, apperrors.ErrNotAuthenticated)
}
