package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/metrics"
)

const logoutMessage = "Logged out successfully"

// Manager issues and checks session tokens.
type Manager struct {
	repo   Repository
	ttl    time.Duration
	now    func() time.Time
	logger logrus.FieldLogger
}

func NewManager(repo Repository, ttl time.Duration, logger logrus.FieldLogger) *Manager {
	return &Manager{
		repo:   repo,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.WithField("component", "session"),
	}
}

// WithClock replaces the time source. Used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Issue creates a session for the user using the manager's own repository.
func (m *Manager) Issue(ctx context.Context, userID int64, role Role) (*Session, error) {
	return m.IssueIn(ctx, m.repo, userID, role)
}

// IssueIn creates a session through repo, which may be bound to a transaction.
// Any earlier session of the same user and role is replaced.
func (m *Manager) IssueIn(ctx context.Context, repo Repository, userID int64, role Role) (*Session, error) {
	token, err := NewToken(role)
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &Session{
		Token:     token,
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := repo.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	metrics.SessionsIssued.WithLabelValues(string(role)).Inc()
	m.logger.WithFields(logrus.Fields{"user_id": userID, "role": role}).Info("session issued")
	return s, nil
}

// Validate returns the user id bound to token if it is well formed, carries the
// expected role, exists and has not expired. Expired sessions are removed.
func (m *Manager) Validate(ctx context.Context, token string, expected Role) (int64, error) {
	role, err := ParseToken(token)
	if err != nil || role != expected {
		metrics.AuthFailures.WithLabelValues("invalid").Inc()
		return 0, ErrInvalidSession
	}

	s, err := m.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			metrics.AuthFailures.WithLabelValues("not_found").Inc()
		}
		return 0, err
	}

	if s.Expired(m.now()) {
		metrics.AuthFailures.WithLabelValues("expired").Inc()
		if err := m.repo.Delete(ctx, token); err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.logger.WithError(err).Warn("failed to delete expired session")
		}
		return 0, ErrSessionExpired
	}

	return s.UserID, nil
}

func (m *Manager) Revoke(ctx context.Context, token string) (*Confirmation, error) {
	return m.RevokeIn(ctx, m.repo, token)
}

// RevokeIn deletes the session through repo so the removal can share a
// transaction with other writes.
func (m *Manager) RevokeIn(ctx context.Context, repo Repository, token string) (*Confirmation, error) {
	if err := repo.Delete(ctx, token); err != nil {
		return nil, err
	}
	metrics.SessionsRevoked.Inc()
	return &Confirmation{Token: token, Message: logoutMessage}, nil
}

// Logout revokes token after checking it belongs to role.
func (m *Manager) Logout(ctx context.Context, token string, role Role) (*Confirmation, error) {
	parsed, err := ParseToken(token)
	if err != nil || parsed != role {
		return nil, ErrInvalidSession
	}
	return m.Revoke(ctx, token)
}

// SweepExpired removes every session past its expiry.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	n, err := m.repo.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	if n > 0 {
		metrics.SessionsSwept.Add(float64(n))
		m.logger.WithField("count", n).Info("expired sessions removed")
	}
	return n, nil
}
