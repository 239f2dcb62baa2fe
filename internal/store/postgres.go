package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/session"
)

type Postgres struct {
	pool db.TxBeginner
}

func NewPostgres(pool db.TxBeginner) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Read() Stores {
	return storesOn(p.pool)
}

func (p *Postgres) Do(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(ctx, storesOn(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func storesOn(q db.Querier) Stores {
	return Stores{
		Customers: customer.NewPostgresRepository(q),
		Sessions:  session.NewPostgresRepository(q),
	}
}
