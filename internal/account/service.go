package account

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/password"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/store"
)

const (
	passwordUpdatedMessage = "Updated password and logged out. Login again with new password"
	accountDeletedMessage  = "Deleted account and logged out successfully"
)

// Service implements customer account operations. Every operation except
// Register and Login requires a valid customer session token.
type Service struct {
	uow      store.UnitOfWork
	orders   order.Repository
	sessions *session.Manager
	hasher   password.Hasher
	events   Events
	logger   logrus.FieldLogger
}

// NewService wires the account operations. A nil events sink disables notifications.
func NewService(
	uow store.UnitOfWork,
	orders order.Repository,
	sessions *session.Manager,
	hasher password.Hasher,
	events Events,
	logger logrus.FieldLogger,
) *Service {
	if events == nil {
		events = nopEvents{}
	}
	return &Service{
		uow:      uow,
		orders:   orders,
		sessions: sessions,
		hasher:   hasher,
		events:   events,
		logger:   logger.WithField("component", "account"),
	}
}

func (s *Service) Register(ctx context.Context, r Registration) (*customer.Customer, error) {
	_, err := s.uow.Read().Customers.FindByMobileOrEmail(ctx, r.MobileNo, r.EmailID)
	if err == nil {
		return nil, ErrDuplicateAccount
	}
	if !errors.Is(err, customer.ErrNotFound) {
		return nil, err
	}

	digest, err := s.hasher.Hash(r.Password)
	if err != nil {
		return nil, err
	}

	c := &customer.Customer{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		MobileNo:     r.MobileNo,
		EmailID:      r.EmailID,
		PasswordHash: digest,
		Addresses:    []customer.Address{},
	}
	err = s.uow.Do(ctx, func(ctx context.Context, st store.Stores) error {
		return st.Customers.Save(ctx, c)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	c.Orders = []order.Order{}

	s.logger.WithField("customer_id", c.ID).Info("customer registered")
	if err := s.events.CustomerRegistered(ctx, c); err != nil {
		s.logger.WithError(err).WithField("customer_id", c.ID).Warn("failed to publish customer registered")
	}
	return c, nil
}

// Login verifies the mobile number and password and issues a customer session.
func (s *Service) Login(ctx context.Context, creds Credentials) (*session.Session, error) {
	c, err := s.uow.Read().Customers.FindByMobile(ctx, creds.MobileNo)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(creds.Password, c.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.sessions.Issue(ctx, c.ID, session.RoleCustomer)
}

func (s *Service) Logout(ctx context.Context, token string) (*session.Confirmation, error) {
	return s.sessions.Logout(ctx, token, session.RoleCustomer)
}

func (s *Service) Profile(ctx context.Context, token string) (*customer.Customer, error) {
	id, err := s.authorize(ctx, token)
	if err != nil {
		return nil, err
	}
	c, err := load(ctx, s.uow.Read(), id)
	if err != nil {
		return nil, err
	}
	return s.withOrders(ctx, c)
}

// ReplaceProfile overwrites the set fields of u on the customer found by u's
// mobile number, or by its email when the mobile number matches nobody. The
// located customer must own the session.
func (s *Service) ReplaceProfile(ctx context.Context, token string, u Update) (*customer.Customer, error) {
	id, err := s.authorize(ctx, token)
	if err != nil {
		return nil, err
	}

	var c *customer.Customer
	err = s.uow.Do(ctx, func(ctx context.Context, st store.Stores) error {
		found, err := locate(ctx, st.Customers, u.MobileNo, u.EmailID)
		if err != nil {
			return err
		}
		if found.ID != id {
			return ErrVerification
		}
		c = found

		if u.FirstName != nil {
			c.FirstName = *u.FirstName
		}
		if u.LastName != nil {
			c.LastName = *u.LastName
		}
		if u.MobileNo != nil {
			c.MobileNo = *u.MobileNo
		}
		if u.EmailID != nil {
			c.EmailID = *u.EmailID
		}
		if u.Password != nil {
			digest, err := s.hasher.Hash(*u.Password)
			if err != nil {
				return err
			}
			c.PasswordHash = digest
		}
		if u.Addresses != nil {
			c.Addresses = MergeAddresses(c.Addresses, u.Addresses)
		}
		if u.CreditCard != nil {
			card := *u.CreditCard
			c.CreditCard = &card
		}
		return st.Customers.Save(ctx, c)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return s.withOrders(ctx, c)
}

func locate(ctx context.Context, repo customer.Repository, mobileNo, emailID *string) (*customer.Customer, error) {
	if mobileNo != nil {
		c, err := repo.FindByMobile(ctx, *mobileNo)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, customer.ErrNotFound) {
			return nil, err
		}
	}
	if emailID != nil {
		c, err := repo.FindByEmail(ctx, *emailID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, customer.ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrAccountNotFound
}

// UpdateContact changes whichever of email and mobile number is set.
func (s *Service) UpdateContact(ctx context.Context, token string, cu ContactUpdate) (*customer.Customer, error) {
	return s.mutate(ctx, token, func(c *customer.Customer) error {
		if cu.EmailID != nil {
			c.EmailID = *cu.EmailID
		}
		if cu.MobileNo != nil {
			c.MobileNo = *cu.MobileNo
		}
		return nil
	})
}

// UpdatePassword stores a new password and ends the calling session. Both
// happen or neither does.
func (s *Service) UpdatePassword(ctx context.Context, token string, pu PasswordUpdate) (*session.Confirmation, error) {
	id, err := s.authorize(ctx, token)
	if err != nil {
		return nil, err
	}

	var conf *session.Confirmation
	err = s.uow.Do(ctx, func(ctx context.Context, st store.Stores) error {
		c, err := load(ctx, st, id)
		if err != nil {
			return err
		}
		if pu.MobileNo != c.MobileNo {
			return ErrVerification
		}

		digest, err := s.hasher.Hash(pu.Password)
		if err != nil {
			return err
		}
		c.PasswordHash = digest
		if err := st.Customers.Save(ctx, c); err != nil {
			return err
		}

		conf, err = s.sessions.RevokeIn(ctx, st.Sessions, token)
		return err
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.logger.WithField("customer_id", id).Info("password updated")
	conf.Message = passwordUpdatedMessage
	return conf, nil
}

// UpdateAddress replaces the address with a's id, or appends a when no address has it.
func (s *Service) UpdateAddress(ctx context.Context, token string, a customer.Address) (*customer.Customer, error) {
	return s.mutate(ctx, token, func(c *customer.Customer) error {
		c.Addresses = MergeAddresses(c.Addresses, []customer.Address{a})
		return nil
	})
}

func (s *Service) UpdateCreditCard(ctx context.Context, token string, card customer.CreditCard) (*customer.Customer, error) {
	return s.mutate(ctx, token, func(c *customer.Customer) error {
		c.CreditCard = &card
		return nil
	})
}

// DeleteAddress removes the first address whose type matches addressType, ignoring case.
func (s *Service) DeleteAddress(ctx context.Context, token, addressType string) (*customer.Customer, error) {
	return s.mutate(ctx, token, func(c *customer.Customer) error {
		for i, a := range c.Addresses {
			if strings.EqualFold(a.Type, addressType) {
				c.Addresses = append(c.Addresses[:i:i], c.Addresses[i+1:]...)
				return nil
			}
		}
		return ErrNoSuchAddress
	})
}

// DeleteAccount removes the customer and ends the calling session after
// checking the mobile number and password.
func (s *Service) DeleteAccount(ctx context.Context, token string, creds Credentials) (*session.Confirmation, error) {
	id, err := s.authorize(ctx, token)
	if err != nil {
		return nil, err
	}

	var conf *session.Confirmation
	err = s.uow.Do(ctx, func(ctx context.Context, st store.Stores) error {
		c, err := load(ctx, st, id)
		if err != nil {
			return err
		}
		if creds.MobileNo != c.MobileNo || !s.hasher.Verify(creds.Password, c.PasswordHash) {
			return ErrVerification
		}

		if err := st.Customers.Delete(ctx, id); err != nil {
			return err
		}
		conf, err = s.sessions.RevokeIn(ctx, st.Sessions, token)
		return err
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.logger.WithField("customer_id", id).Info("customer deleted")
	if err := s.events.CustomerDeleted(ctx, id); err != nil {
		s.logger.WithError(err).WithField("customer_id", id).Warn("failed to publish customer deleted")
	}
	conf.Message = accountDeletedMessage
	return conf, nil
}

func (s *Service) ListOrders(ctx context.Context, token string) ([]order.Order, error) {
	id, err := s.authorize(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, err := load(ctx, s.uow.Read(), id); err != nil {
		return nil, err
	}

	orders, err := s.orders.ListByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}
	return orders, nil
}

// ListAll returns every customer. It requires a seller session.
func (s *Service) ListAll(ctx context.Context, token string) ([]customer.Customer, error) {
	if _, err := s.sessions.Validate(ctx, token, session.RoleSeller); err != nil {
		return nil, err
	}

	customers, err := s.uow.Read().Customers.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, ErrNoRecords
	}

	for i := range customers {
		if _, err := s.withOrders(ctx, &customers[i]); err != nil {
			return nil, err
		}
	}
	return customers, nil
}

func (s *Service) authorize(ctx context.Context, token string) (int64, error) {
	return s.sessions.Validate(ctx, token, session.RoleCustomer)
}

// mutate loads the session's customer, applies fn and saves the result in one unit of work.
func (s *Service) mutate(
	ctx context.Context,
	token string,
	fn func(c *customer.Customer) error,
) (*customer.Customer, error) {
	id, err := s.authorize(ctx, token)
	if err != nil {
		return nil, err
	}

	var c *customer.Customer
	err = s.uow.Do(ctx, func(ctx context.Context, st store.Stores) error {
		found, err := load(ctx, st, id)
		if err != nil {
			return err
		}
		if err := fn(found); err != nil {
			return err
		}
		c = found
		return st.Customers.Save(ctx, c)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return s.withOrders(ctx, c)
}

func (s *Service) withOrders(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	orders, err := s.orders.ListByCustomer(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []order.Order{}
	}
	c.Orders = orders
	return c, nil
}

func load(ctx context.Context, st store.Stores, id int64) (*customer.Customer, error) {
	c, err := st.Customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return c, nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, customer.ErrDuplicate):
		return ErrDuplicateAccount
	case errors.Is(err, customer.ErrNotFound):
		return ErrAccountNotFound
	default:
		return err
	}
}
