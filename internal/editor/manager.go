package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/metrics"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/routeapi"
)

// ErrSessionNotFound is returned for ids the manager does not hold, whether
// they never existed or were already discarded.
var ErrSessionNotFound = errors.New("editor session not found")

// Manager owns the live editor sessions: creation (optionally seeded from a
// persisted route), lookup, deletion and background expiration of sessions
// left idle past their TTL.
type Manager struct {
	settings Settings
	deps     Deps
	logger   *logrus.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	stopCh chan struct{}
}

// NewManager creates a session manager. Optional dependencies are replaced
// with no-ops so callers only wire what they have.
func NewManager(settings Settings, deps Deps) *Manager {
	deps = deps.withDefaults()
	return &Manager{
		settings: settings.withDefaults(),
		deps:     deps,
		logger:   deps.Logger,
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
	}
}

// Create opens a new editing session. With a route id the session is seeded
// from that route's saved stops and a fresh computation is kicked off for
// them; stored metrics are never trusted.
func (m *Manager) Create(ctx context.Context, routeID string) (*Session, error) {
	var seedRoute *routeapi.Route
	if routeID != "" {
		route, err := m.deps.Routes.GetRoute(ctx, routeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load route for seeding: %w", err)
		}
		seedRoute = route
	}

	s := newSession(uuid.NewString(), m.settings, m.deps)
	if seedRoute != nil {
		s.seed(seedRoute)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.SessionsOpened.Add(ctx, 1)
	metrics.SessionsActive.Add(ctx, 1)
	m.logger.WithFields(logrus.Fields{
		"session_id": s.ID,
		"route_id":   routeID,
		"active":     count,
	}).Info("Editor session opened")
	return s, nil
}

// Get returns a live session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete discards a session, cancelling its pending work.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.Close("deleted")
	metrics.SessionsActive.Add(context.Background(), -1)
	m.logger.WithField("session_id", id).Info("Editor session deleted")
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Start begins the background idle sweeper.
func (m *Manager) Start() {
	m.logger.WithFields(logrus.Fields{
		"ttl":      m.settings.SessionTTL.String(),
		"interval": m.settings.SweepInterval.String(),
	}).Info("Starting editor session sweeper")
	go m.run()
}

// Stop halts the sweeper and closes every remaining session.
func (m *Manager) Stop() {
	close(m.stopCh)

	m.mu.Lock()
	remaining := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		remaining = append(remaining, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range remaining {
		s.Close("shutdown")
		metrics.SessionsActive.Add(context.Background(), -1)
	}
	m.logger.WithField("closed", len(remaining)).Info("Editor session sweeper stopped")
}

func (m *Manager) run() {
	ticker := time.NewTicker(m.settings.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweepIdle()
		case <-m.stopCh:
			return
		}
	}
}

// sweepIdle expires sessions with no activity inside the TTL window.
func (m *Manager) sweepIdle() {
	cutoff := time.Now().Add(-m.settings.SessionTTL)

	m.mu.Lock()
	expired := make([]*Session, 0)
	for id, s := range m.sessions {
		if s.LastActivity().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	if len(expired) == 0 {
		return
	}

	ctx := context.Background()
	for _, s := range expired {
		s.Close("expired")
		metrics.SessionsExpired.Add(ctx, 1)
		metrics.SessionsActive.Add(ctx, -1)
		m.logger.WithField("session_id", s.ID).Info("Editor session expired")
	}
}

// SweepOnce runs a single expiration pass (useful for tests or a manual
// trigger).
func (m *Manager) SweepOnce() {
	m.sweepIdle()
}
