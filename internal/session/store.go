package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"weather_agent_poc/internal/core"

	"github.com/cloudwego/eino/schema"
)

// Store is the session persistence contract. A durable implementation must
// keep the same merge/overwrite semantics as the in-memory one.
//
// Writes for one composite key are serialized by the store; callers running
// turns additionally hold a per-session lock so turn N+1 observes every
// write committed by turn N.
type Store interface {
	// Create registers a new session. Fails with core.ErrSessionExists if
	// the composite key is already in use. initialState may be nil.
	Create(ctx context.Context, appName, userID, sessionID string, initialState map[string]any) (*core.Session, error)
	// Get returns the session for the composite key or core.ErrSessionNotFound.
	Get(ctx context.Context, appName, userID, sessionID string) (*core.Session, error)
	// ApplyStateWrite merges delta into the session state by per-key
	// overwrite and bumps the last-update timestamp. Keys absent from
	// delta are untouched. This is the only mutation path for state.
	ApplyStateWrite(ctx context.Context, session *core.Session, delta map[string]any) error
	// AppendEvents appends conversation events to the session history.
	AppendEvents(ctx context.Context, session *core.Session, events ...*schema.Message) error
}

// MemoryStore is the default in-memory Store. Simple, non-persistent,
// process-lifetime only.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*core.Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*core.Session),
	}
}

// Create registers a new session with a copy of initialState.
func (m *MemoryStore) Create(ctx context.Context, appName, userID, sessionID string, initialState map[string]any) (*core.Session, error) {
	if appName == "" || userID == "" || sessionID == "" {
		return nil, fmt.Errorf("app name, user ID and session ID are all required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := core.SessionKey(appName, userID, sessionID)
	if _, exists := m.sessions[key]; exists {
		return nil, fmt.Errorf("session %s: %w", key, core.ErrSessionExists)
	}

	state := make(map[string]any, len(initialState))
	for k, v := range initialState {
		state[k] = v
	}

	now := time.Now().Unix()
	session := &core.Session{
		AppName:   appName,
		UserID:    userID,
		ID:        sessionID,
		State:     state,
		Events:    []*schema.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[key] = session

	return session, nil
}

// Get retrieves a session by its composite key.
func (m *MemoryStore) Get(ctx context.Context, appName, userID, sessionID string) (*core.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := core.SessionKey(appName, userID, sessionID)
	session, exists := m.sessions[key]
	if !exists {
		return nil, fmt.Errorf("session %s: %w", key, core.ErrSessionNotFound)
	}

	return session, nil
}

// ApplyStateWrite merges delta into the stored session state.
func (m *MemoryStore) ApplyStateWrite(ctx context.Context, session *core.Session, delta map[string]any) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if len(delta) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.sessions[session.Key()]
	if !exists {
		return fmt.Errorf("session %s: %w", session.Key(), core.ErrSessionNotFound)
	}

	for k, v := range delta {
		stored.State[k] = v
	}
	stored.UpdatedAt = time.Now().Unix()

	return nil
}

// AppendEvents appends conversation events to the stored session.
func (m *MemoryStore) AppendEvents(ctx context.Context, session *core.Session, events ...*schema.Message) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if len(events) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.sessions[session.Key()]
	if !exists {
		return fmt.Errorf("session %s: %w", session.Key(), core.ErrSessionNotFound)
	}

	stored.Events = append(stored.Events, events...)
	stored.UpdatedAt = time.Now().Unix()

	return nil
}
