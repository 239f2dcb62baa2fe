package seller

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/db"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*Seller, error)
	FindByMobile(ctx context.Context, mobileNo string) (*Seller, error)
	Create(ctx context.Context, s *Seller) error
}

type PostgresRepository struct {
	q db.Querier
}

func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

const selectSeller = `SELECT id, first_name, last_name, mobile_no, email_id, password_hash, created_on FROM sellers`

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*Seller, error) {
	return scanSeller(r.q.QueryRow(ctx, selectSeller+` WHERE id = $1`, id))
}

func (r *PostgresRepository) FindByMobile(ctx context.Context, mobileNo string) (*Seller, error) {
	return scanSeller(r.q.QueryRow(ctx, selectSeller+` WHERE mobile_no = $1`, mobileNo))
}

func scanSeller(row pgx.Row) (*Seller, error) {
	var s Seller
	if err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.MobileNo, &s.EmailID, &s.PasswordHash, &s.CreatedOn); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select seller: %w", err)
	}
	return &s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, s *Seller) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO sellers (first_name, last_name, mobile_no, email_id, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_on`,
		s.FirstName, s.LastName, s.MobileNo, s.EmailID, s.PasswordHash,
	).Scan(&s.ID, &s.CreatedOn)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}
