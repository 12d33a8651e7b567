package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"foodcourt/app-svc/internal/domain"

	"github.com/sirupsen/logrus"
)

type SessionStatus string

const (
	SessionLoading         SessionStatus = "loading"
	SessionUnauthenticated SessionStatus = "unauthenticated"
	SessionAuthenticated   SessionStatus = "authenticated"
)

type SessionState struct {
	Status   SessionStatus    `json:"status"`
	Identity *domain.Identity `json:"identity,omitempty"`
}

// SessionManager owns the authenticated identity of the hosted client.
type SessionManager struct {
	provider IdentityProvider
	profiles ProfileStore
	storage  SessionStorage
	codec    *SessionCodec
	logger   *logrus.Logger

	// transitionMu serializes persisting a session with publishing it.
	transitionMu sync.Mutex

	mu        sync.RWMutex
	state     SessionState
	epoch     uint64
	listeners map[int]func(SessionState)
	nextID    int
}

func NewSessionManager(provider IdentityProvider, profiles ProfileStore, storage SessionStorage, codec *SessionCodec, logger *logrus.Logger) *SessionManager {
	return &SessionManager{
		provider:  provider,
		profiles:  profiles,
		storage:   storage,
		codec:     codec,
		logger:    logger,
		state:     SessionState{Status: SessionLoading},
		listeners: make(map[int]func(SessionState)),
	}
}

// Start resolves the initial state from the persisted session, falling back
// to the provider's current identity, and then follows provider changes
// until ctx is done.
func (m *SessionManager) Start(ctx context.Context) error {
	changes := m.provider.CurrentIdentityChanges(ctx)

	var current *domain.Credential
	select {
	case cred, ok := <-changes:
		if ok {
			current = cred
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	identity := m.restore(ctx)
	if identity == nil && current != nil {
		resolved, err := m.resolveProfile(ctx, current)
		if err != nil {
			m.logger.WithError(err).WithField("user_id", current.ID).Warn("could not resolve profile for current identity")
		} else {
			identity = resolved
			m.persist(ctx, *identity)
		}
	}

	if identity != nil {
		m.setState(SessionState{Status: SessionAuthenticated, Identity: identity})
	} else {
		m.setState(SessionState{Status: SessionUnauthenticated})
	}

	go m.follow(ctx, changes)
	return nil
}

func (m *SessionManager) restore(ctx context.Context) *domain.Identity {
	serialized, err := m.storage.Get(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			m.logger.WithError(err).Error("Failed to load user session")
		}
		return nil
	}

	identity, err := m.codec.Decode(serialized)
	if err != nil {
		m.logger.WithError(err).Warn("discarding persisted session")
		m.clearPersisted(ctx)
		return nil
	}

	profile, err := m.resolveProfile(ctx, &domain.Credential{ID: identity.ID, Email: identity.Email})
	switch {
	case errors.Is(err, domain.ErrAccountDisabled), errors.Is(err, domain.ErrNotFound):
		m.logger.WithError(err).WithField("user_id", identity.ID).Warn("persisted session no longer valid")
		m.clearPersisted(ctx)
		return nil
	case err != nil:
		// profile store unreachable, keep the signed session
		m.logger.WithError(err).WithField("user_id", identity.ID).Warn("could not recheck persisted session")
		return identity
	}

	if *profile != *identity {
		m.persist(ctx, *profile)
	}
	return profile
}

// follow applies provider changes unless a local transition happened while
// the change was being resolved.
func (m *SessionManager) follow(ctx context.Context, changes <-chan *domain.Credential) {
	for cred := range changes {
		m.mu.RLock()
		epoch := m.epoch
		m.mu.RUnlock()

		current := m.Identity()
		switch {
		case cred == nil && current != nil:
			m.transitionFrom(epoch, func() {
				m.logger.WithField("user_id", current.ID).Info("identity provider signed out")
				m.clearPersisted(ctx)
				m.setState(SessionState{Status: SessionUnauthenticated})
			})
		case cred != nil && (current == nil || current.ID != cred.ID):
			identity, err := m.resolveProfile(ctx, cred)
			if err != nil {
				m.logger.WithError(err).WithField("user_id", cred.ID).Warn("ignoring identity change")
				continue
			}
			applied := m.transitionFrom(epoch, func() {
				m.persist(ctx, *identity)
				m.setState(SessionState{Status: SessionAuthenticated, Identity: identity})
			})
			if !applied {
				m.logger.WithField("user_id", cred.ID).Debug("identity change superseded")
			}
		}
	}
}

// transitionFrom runs fn only if no state change happened since epoch.
func (m *SessionManager) transitionFrom(epoch uint64, fn func()) bool {
	m.transitionMu.Lock()
	defer m.transitionMu.Unlock()

	m.mu.RLock()
	stale := m.epoch != epoch
	m.mu.RUnlock()
	if stale {
		return false
	}
	fn()
	return true
}

func (m *SessionManager) transition(fn func()) {
	m.transitionMu.Lock()
	defer m.transitionMu.Unlock()
	fn()
}

func (m *SessionManager) SignIn(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	cred, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}

	identity, err := m.resolveProfile(ctx, cred)
	if err != nil {
		if errors.Is(err, domain.ErrAccountDisabled) {
			if signOutErr := m.provider.SignOut(ctx); signOutErr != nil {
				m.logger.WithError(signOutErr).Warn("could not sign out disabled account")
			}
		}
		return err
	}

	m.transition(func() {
		m.persist(ctx, *identity)
		m.setState(SessionState{Status: SessionAuthenticated, Identity: identity})
	})
	m.logger.WithFields(logrus.Fields{"user_id": identity.ID, "role": identity.Role}).Info("signed in")
	return nil
}

// SignUp creates the account and its profile record. An empty role means user.
func (m *SessionManager) SignUp(ctx context.Context, email, password, name string, role domain.Role) error {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return fmt.Errorf("%w: email, password and name are required", domain.ErrInvalidInput)
	}
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	cred, err := m.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return err
	}

	identity := domain.Identity{
		ID:       cred.ID,
		Email:    cred.Email,
		Name:     name,
		Role:     role,
		IsActive: true,
	}
	if err := m.profiles.CreateProfile(ctx, cred.ID, identity); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}

	m.transition(func() {
		m.persist(ctx, identity)
		m.setState(SessionState{Status: SessionAuthenticated, Identity: &identity})
	})
	m.logger.WithFields(logrus.Fields{"user_id": identity.ID, "role": identity.Role}).Info("signed up")
	return nil
}

// SignOut always ends the local session; a provider failure is still returned.
func (m *SessionManager) SignOut(ctx context.Context) error {
	m.transition(func() {
		m.clearPersisted(ctx)
		m.setState(SessionState{Status: SessionUnauthenticated})
	})

	if err := m.provider.SignOut(ctx); err != nil {
		return fmt.Errorf("provider sign out: %w", err)
	}
	return nil
}

// UpdateProfile merges name, phone and address into the current identity.
// It is a no-op while unauthenticated.
func (m *SessionManager) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) error {
	m.mu.RLock()
	epoch := m.epoch
	m.mu.RUnlock()

	current := m.Identity()
	if current == nil {
		return nil
	}

	patch.IsActive = nil
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return fmt.Errorf("%w: name must not be empty", domain.ErrInvalidInput)
		}
		patch.Name = &trimmed
	}

	if err := m.profiles.SetProfileFields(ctx, current.ID, patch); err != nil {
		return err
	}

	updated := *current
	patch.Apply(&updated)
	m.transitionFrom(epoch, func() {
		m.persist(ctx, updated)
		m.setState(SessionState{Status: SessionAuthenticated, Identity: &updated})
	})
	return nil
}

func (m *SessionManager) resolveProfile(ctx context.Context, cred *domain.Credential) (*domain.Identity, error) {
	profile, err := m.profiles.GetProfile(ctx, cred.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if !profile.IsActive {
		return nil, domain.ErrAccountDisabled
	}
	profile.ID = cred.ID
	if profile.Email == "" {
		profile.Email = cred.Email
	}
	return profile, nil
}

func (m *SessionManager) persist(ctx context.Context, identity domain.Identity) {
	serialized, err := m.codec.Encode(identity)
	if err == nil {
		err = m.storage.Set(ctx, serialized)
	}
	if err != nil {
		m.logger.WithError(err).Warn("could not persist session")
	}
}

func (m *SessionManager) clearPersisted(ctx context.Context) {
	if err := m.storage.Clear(ctx); err != nil {
		m.logger.WithError(err).Warn("could not clear persisted session")
	}
}

func (m *SessionManager) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyStateLocked()
}

// Identity returns a copy of the current identity, nil unless authenticated.
func (m *SessionManager) Identity() *domain.Identity {
	return m.State().Identity
}

// OnChange registers fn for every state transition. fn runs on the
// goroutine that caused the transition.
func (m *SessionManager) OnChange(fn func(SessionState)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

func (m *SessionManager) setState(state SessionState) {
	m.mu.Lock()
	m.state = state
	m.epoch++
	snapshot := m.copyStateLocked()
	listeners := make([]func(SessionState), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (m *SessionManager) copyStateLocked() SessionState {
	state := SessionState{Status: m.state.Status}
	if m.state.Identity != nil {
		identity := *m.state.Identity
		state.Identity = &identity
	}
	return state
}
