package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dealflow/internal/observability/metrics"

	"github.com/google/uuid"
)

// Manager resolves sessions from a fast primary store and, when configured,
// falls back to a durable store so identities survive a restart.
type Manager struct {
	primary Store
	durable Store // nil in the non-persistent variant
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewManager(primary, durable Store, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{primary: primary, durable: durable, ttl: ttl, logger: logger, now: time.Now}
}

// Persistent reports whether a durable store is attached.
func (m *Manager) Persistent() bool { return m.durable != nil }

// Create establishes a new session for user.
func (m *Manager) Create(ctx context.Context, user User) (*Session, error) {
	now := m.now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		User:      user,
		CreatedAt: now,
	}
	if m.ttl > 0 {
		s.ExpiresAt = now.Add(m.ttl)
	}

	if err := m.primary.Save(ctx, s); err != nil {
		return nil, err
	}
	if m.durable != nil {
		if err := m.durable.Save(ctx, s); err != nil {
			_ = m.primary.Delete(ctx, s.ID)
			return nil, err
		}
	}
	return s, nil
}

// Get returns the session or ErrNotFound. A session found only in the durable
// store is copied back into the primary store.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	s, err := m.primary.Load(ctx, id)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) || m.durable == nil {
		return nil, err
	}

	s, err = m.durable.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Expired(m.now()) {
		_ = m.durable.Delete(ctx, id)
		metrics.SessionEnded(metrics.SessionExpired)
		return nil, ErrNotFound
	}
	if err := m.primary.Save(ctx, s); err != nil && m.logger != nil {
		m.logger.Warn("failed to warm session cache", slog.String("session_id", id), slog.String("error", err.Error()))
	}
	return s, nil
}

// End removes the session from every store.
func (m *Manager) End(ctx context.Context, id string) error {
	err := m.primary.Delete(ctx, id)
	if m.durable != nil {
		if derr := m.durable.Delete(ctx, id); derr != nil {
			err = errors.Join(err, derr)
		}
	}
	return err
}
