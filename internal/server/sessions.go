package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"resumelift/internal/config"
	"resumelift/internal/errors"
	"resumelift/internal/gateway"
	"resumelift/internal/observability"
	"resumelift/internal/workflow"
)

const (
	defaultSessionTTL             = 30 * time.Minute
	defaultSessionCleanupInterval = time.Minute
)

type sessionEntry struct {
	workbench  *workflow.Workbench
	createdAt  time.Time
	lastAccess time.Time
}

// SessionRegistry maps session ids to workbenches and evicts sessions
// that have been idle longer than the configured TTL. All sessions
// share one gateway client; the registry never closes it.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry

	ttl    time.Duration
	done   chan struct{}
	cfg    *config.Config
	client gateway.Client
	logger *errors.Logger
	om     *observability.ObservabilityManager
}

// NewSessionRegistry creates the registry and starts the eviction
// goroutine.
func NewSessionRegistry(cfg *config.Config, client gateway.Client, logger *errors.Logger, om *observability.ObservabilityManager) *SessionRegistry {
	ttl := cfg.Session.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	interval := cfg.Session.CleanupInterval
	if interval <= 0 {
		interval = defaultSessionCleanupInterval
	}

	r := &SessionRegistry{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		done:     make(chan struct{}),
		cfg:      cfg,
		client:   client,
		logger:   logger,
		om:       om,
	}

	go r.cleanupRoutine(interval)
	return r
}

// Open creates a fresh workbench and returns its session id.
func (r *SessionRegistry) Open(ctx context.Context) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeSessionState,
			"failed to generate session id", err)
	}

	now := time.Now()
	r.mu.Lock()
	r.sessions[id] = &sessionEntry{
		workbench:  workflow.NewWorkbench(r.cfg, r.client, r.logger, r.om),
		createdAt:  now,
		lastAccess: now,
	}
	count := len(r.sessions)
	r.mu.Unlock()

	r.recordOpened(ctx)
	r.logger.Info("Session opened", "session_id", id, "active_sessions", count)
	return id, nil
}

// Get resolves a session id to its workbench and refreshes the idle
// timer.
func (r *SessionRegistry) Get(id string) (*workflow.Workbench, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeSessionNotFound,
			fmt.Sprintf("unknown session %q", id), nil)
	}
	entry.lastAccess = time.Now()
	return entry.workbench, nil
}

// Close removes a session. Closing an unknown id is an error so the
// client learns the session already expired.
func (r *SessionRegistry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return errors.NewNotFoundError(errors.ErrCodeSessionNotFound,
			fmt.Sprintf("unknown session %q", id), nil)
	}

	r.recordClosed(ctx, false)
	r.logger.Info("Session closed", "session_id", id)
	return nil
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// GetStats summarizes the registry for the stats endpoint.
func (r *SessionRegistry) GetStats() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]any{
		"active_sessions": len(r.sessions),
		"ttl":             r.ttl.String(),
	}
}

// cleanupRoutine periodically evicts idle sessions.
func (r *SessionRegistry) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictExpired()
		case <-r.done:
			return
		}
	}
}

// evictExpired removes sessions idle past the TTL.
func (r *SessionRegistry) evictExpired() {
	now := time.Now()

	r.mu.Lock()
	var expired []string
	for id, entry := range r.sessions {
		if now.Sub(entry.lastAccess) > r.ttl {
			expired = append(expired, id)
			delete(r.sessions, id)
		}
	}
	remaining := len(r.sessions)
	r.mu.Unlock()

	for _, id := range expired {
		r.recordClosed(context.Background(), true)
		r.logger.Info("Session expired", "session_id", id, "ttl", r.ttl.String())
	}
	if len(expired) > 0 {
		r.logger.Debug("Session cleanup completed", "remaining_sessions", remaining)
	}
}

// Shutdown stops the eviction goroutine and drops all sessions.
func (r *SessionRegistry) Shutdown(ctx context.Context) {
	close(r.done)

	r.mu.Lock()
	count := len(r.sessions)
	r.sessions = make(map[string]*sessionEntry)
	r.mu.Unlock()

	for range count {
		r.recordClosed(ctx, false)
	}
}

func (r *SessionRegistry) recordOpened(ctx context.Context) {
	if r.om == nil {
		return
	}
	r.om.GetMetrics().RecordSessionOpened(ctx, r.om)
}

func (r *SessionRegistry) recordClosed(ctx context.Context, expired bool) {
	if r.om == nil {
		return
	}
	r.om.GetMetrics().RecordSessionClosed(ctx, expired, r.om)
}

// newSessionID returns 32 hex characters of randomness.
func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
