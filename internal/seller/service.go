package seller

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/account"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/password"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/session"
)

// Service registers sellers and opens seller sessions.
type Service struct {
	repo     Repository
	sessions *session.Manager
	hasher   password.Hasher
	logger   logrus.FieldLogger
}

func NewService(repo Repository, sessions *session.Manager, hasher password.Hasher, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger.WithField("component", "seller"),
	}
}

func (s *Service) Register(ctx context.Context, r account.Registration) (*Seller, error) {
	digest, err := s.hasher.Hash(r.Password)
	if err != nil {
		return nil, err
	}

	sl := &Seller{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		MobileNo:     r.MobileNo,
		EmailID:      r.EmailID,
		PasswordHash: digest,
	}
	if err := s.repo.Create(ctx, sl); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, account.ErrDuplicateAccount
		}
		return nil, err
	}

	s.logger.WithField("seller_id", sl.ID).Info("seller registered")
	return sl, nil
}

func (s *Service) Login(ctx context.Context, creds account.Credentials) (*session.Session, error) {
	sl, err := s.repo.FindByMobile(ctx, creds.MobileNo)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, account.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(creds.Password, sl.PasswordHash) {
		return nil, account.ErrInvalidCredentials
	}
	return s.sessions.Issue(ctx, sl.ID, session.RoleSeller)
}

func (s *Service) Logout(ctx context.Context, token string) (*session.Confirmation, error) {
	return s.sessions.Logout(ctx, token, session.RoleSeller)
}
