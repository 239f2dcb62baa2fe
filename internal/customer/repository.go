package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/db"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*Customer, error)
	FindByMobile(ctx context.Context, mobileNo string) (*Customer, error)
	FindByEmail(ctx context.Context, emailID string) (*Customer, error)
	// FindByMobileOrEmail returns the first customer holding either value.
	FindByMobileOrEmail(ctx context.Context, mobileNo, emailID string) (*Customer, error)
	FindAll(ctx context.Context) ([]Customer, error)
	// Save inserts c together with its cart when c.ID is zero and updates it otherwise.
	// Addresses and the credit card are written as a whole.
	Save(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id int64) error
}

// PostgresRepository is only atomic across its statements when q is a transaction.
type PostgresRepository struct {
	q db.Querier
}

func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

const selectCustomer = `
	SELECT c.id, c.first_name, c.last_name, c.mobile_no, c.email_id, c.password_hash, c.created_on,
	       ct.id, ct.created_at
	FROM customers c
	JOIN carts ct ON ct.customer_id = c.id`

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*Customer, error) {
	return r.findOne(ctx, selectCustomer+` WHERE c.id = $1`, id)
}

func (r *PostgresRepository) FindByMobile(ctx context.Context, mobileNo string) (*Customer, error) {
	return r.findOne(ctx, selectCustomer+` WHERE c.mobile_no = $1`, mobileNo)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, emailID string) (*Customer, error) {
	return r.findOne(ctx, selectCustomer+` WHERE c.email_id = $1`, emailID)
}

func (r *PostgresRepository) FindByMobileOrEmail(ctx context.Context, mobileNo, emailID string) (*Customer, error) {
	return r.findOne(ctx, selectCustomer+` WHERE c.mobile_no = $1 OR c.email_id = $2 ORDER BY c.id LIMIT 1`, mobileNo, emailID)
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]Customer, error) {
	rows, err := r.q.Query(ctx, selectCustomer+` ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("select customers: %w", err)
	}

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		customers = append(customers, *c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	// Children are loaded after the cursor is closed; a transaction connection
	// cannot run a second query while rows are open.
	for i := range customers {
		if err := r.loadChildren(ctx, &customers[i]); err != nil {
			return nil, err
		}
	}
	return customers, nil
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, args ...any) (*Customer, error) {
	c, err := scanCustomer(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.MobileNo, &c.EmailID, &c.PasswordHash, &c.CreatedOn,
		&c.Cart.ID, &c.Cart.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select customer: %w", err)
	}
	c.Cart.CustomerID = c.ID
	c.Addresses = []Address{}
	return &c, nil
}

func (r *PostgresRepository) loadChildren(ctx context.Context, c *Customer) error {
	rows, err := r.q.Query(ctx, `
		SELECT id, address_type, street_no, building_name, locality, city, state, pincode
		FROM addresses WHERE customer_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("select addresses: %w", err)
	}
	for rows.Next() {
		var (
			a  Address
			id int64
		)
		if err := rows.Scan(&id, &a.Type, &a.StreetNo, &a.BuildingName, &a.Locality, &a.City, &a.State, &a.Pincode); err != nil {
			rows.Close()
			return fmt.Errorf("scan address: %w", err)
		}
		a.ID = &id
		c.Addresses = append(c.Addresses, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}

	var card CreditCard
	err = r.q.QueryRow(ctx,
		`SELECT card_number, card_validity, card_cvv FROM credit_cards WHERE customer_id = $1`, c.ID,
	).Scan(&card.CardNumber, &card.CardValidity, &card.CardCVV)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		c.CreditCard = nil
	case err != nil:
		return fmt.Errorf("select credit card: %w", err)
	default:
		c.CreditCard = &card
	}
	return nil
}

func (r *PostgresRepository) Save(ctx context.Context, c *Customer) error {
	if c.ID == 0 {
		if err := r.insert(ctx, c); err != nil {
			return err
		}
	} else if err := r.update(ctx, c); err != nil {
		return err
	}

	if err := r.writeAddresses(ctx, c); err != nil {
		return err
	}
	return r.writeCreditCard(ctx, c)
}

func (r *PostgresRepository) insert(ctx context.Context, c *Customer) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO customers (first_name, last_name, mobile_no, email_id, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_on`,
		c.FirstName, c.LastName, c.MobileNo, c.EmailID, c.PasswordHash,
	).Scan(&c.ID, &c.CreatedOn)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert customer: %w", err)
	}

	c.Cart.CustomerID = c.ID
	err = r.q.QueryRow(ctx,
		`INSERT INTO carts (customer_id) VALUES ($1) RETURNING id, created_at`, c.ID,
	).Scan(&c.Cart.ID, &c.Cart.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func (r *PostgresRepository) update(ctx context.Context, c *Customer) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE customers
		SET first_name = $2, last_name = $3, mobile_no = $4, email_id = $5, password_hash = $6
		WHERE id = $1`,
		c.ID, c.FirstName, c.LastName, c.MobileNo, c.EmailID, c.PasswordHash,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) writeAddresses(ctx context.Context, c *Customer) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM addresses WHERE customer_id = $1`, c.ID); err != nil {
		return fmt.Errorf("delete addresses: %w", err)
	}

	for i := range c.Addresses {
		a := &c.Addresses[i]
		var id int64
		err := r.q.QueryRow(ctx, `
			INSERT INTO addresses (id, customer_id, position, address_type, street_no, building_name, locality, city, state, pincode)
			VALUES (COALESCE($1::bigint, nextval('addresses_id_seq')), $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			a.ID, c.ID, i, a.Type, a.StreetNo, a.BuildingName, a.Locality, a.City, a.State, a.Pincode,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert address: %w", err)
		}
		a.ID = &id
	}
	return nil
}

func (r *PostgresRepository) writeCreditCard(ctx context.Context, c *Customer) error {
	if c.CreditCard == nil {
		if _, err := r.q.Exec(ctx, `DELETE FROM credit_cards WHERE customer_id = $1`, c.ID); err != nil {
			return fmt.Errorf("delete credit card: %w", err)
		}
		return nil
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO credit_cards (customer_id, card_number, card_validity, card_cvv)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id) DO UPDATE
		SET card_number = EXCLUDED.card_number, card_validity = EXCLUDED.card_validity, card_cvv = EXCLUDED.card_cvv`,
		c.ID, c.CreditCard.CardNumber, c.CreditCard.CardValidity, c.CreditCard.CardCVV,
	)
	if err != nil {
		return fmt.Errorf("upsert credit card: %w", err)
	}
	return nil
}

// Delete removes the customer. Cart, addresses, card and order references cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
