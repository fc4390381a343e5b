package main

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Session wraps one engine behind a mutex. The engine itself is a
// single-threaded state machine; the session serializes host events so one
// is fully processed before the next.
type Session struct {
	ID string

	mu     sync.Mutex
	engine *Engine
}

// Do runs fn with exclusive access to the session's engine.
func (s *Session) Do(fn func(e *Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

// Load decodes data and installs it as the session's image. The decode runs
// outside the session lock; a load started later wins over this one even if
// this one finishes last, compared by load generation.
func (s *Session) Load(data []byte) (RenderState, error) {
	s.mu.Lock()
	gen := s.engine.beginLoad()
	s.mu.Unlock()

	img, err := decodeImage(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.engine.failLoad(gen)
		return s.engine.RenderState(), err
	}
	if !s.engine.completeLoad(gen, uuid.NewString(), img) {
		return s.engine.RenderState(), fmt.Errorf("%w: load superseded", ErrNotReady)
	}
	return s.engine.RenderState(), nil
}

// SessionRegistry owns the live editing sessions, keyed by id.
type SessionRegistry struct {
	baseConfig EngineConfig

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionRegistry(baseConfig EngineConfig) *SessionRegistry {
	return &SessionRegistry{
		baseConfig: baseConfig,
		sessions:   make(map[string]*Session),
	}
}

// Create starts a new editing session. A zero override field falls back to
// the registry's base configuration.
func (r *SessionRegistry) Create(override EngineConfig) (*Session, error) {
	cfg := r.baseConfig
	if override.AspectRatio > 0 {
		cfg.AspectRatio = override.AspectRatio
	}
	if override.MinZoom > 0 {
		cfg.MinZoom = override.MinZoom
	}
	if override.MaxZoom > 0 {
		cfg.MaxZoom = override.MaxZoom
	}
	if override.ZoomStep > 0 {
		cfg.ZoomStep = override.ZoomStep
	}

	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:     uuid.NewString(),
		engine: engine,
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()
	return session, nil
}

// Get looks up a session by id.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove destroys a session and forgets it.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.mu.Lock()
		s.engine.Destroy()
		s.mu.Unlock()
	}
}
