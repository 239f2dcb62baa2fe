package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/db"
)

// Repository persists active sessions.
type Repository interface {
	FindByToken(ctx context.Context, token string) (*Session, error)
	FindByUserID(ctx context.Context, userID int64, role Role) (*Session, error)
	// Save stores s, replacing any existing session for the same user and role.
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type PostgresRepository struct {
	q db.Querier
}

func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

const selectSession = `SELECT token, user_id, role, created_at, expires_at FROM sessions`

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*Session, error) {
	return r.scanOne(r.q.QueryRow(ctx, selectSession+` WHERE token = $1`, token))
}

func (r *PostgresRepository) FindByUserID(ctx context.Context, userID int64, role Role) (*Session, error) {
	return r.scanOne(r.q.QueryRow(ctx, selectSession+` WHERE user_id = $1 AND role = $2`, userID, string(role)))
}

func (r *PostgresRepository) scanOne(row pgx.Row) (*Session, error) {
	var (
		s    Session
		role string
	)
	if err := row.Scan(&s.Token, &s.UserID, &role, &s.CreatedAt, &s.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	s.Role = Role(role)
	return &s, nil
}

func (r *PostgresRepository) Save(ctx context.Context, s *Session) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sessions (token, user_id, role, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, role) DO UPDATE
		SET token = EXCLUDED.token, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
	`, s.Token, s.UserID, string(s.Role), s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
