package seller

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/account"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/password"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/session"
)

func newService(t *testing.T) (*Service, *session.Manager) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	manager := session.NewManager(session.NewMemoryRepository(), time.Hour, logger)
	return NewService(NewMemoryRepository(), manager, password.NewBcrypt(4), logger), manager
}

func TestService_RegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	svc, manager := newService(t)

	sl, err := svc.Register(ctx, account.Registration{
		FirstName: "Kiran", LastName: "Shah", MobileNo: "8000000001", EmailID: "kiran@example.com", Password: "seller-pass",
	})
	require.NoError(t, err)
	assert.NotZero(t, sl.ID)

	s, err := svc.Login(ctx, account.Credentials{MobileNo: "8000000001", Password: "seller-pass"})
	require.NoError(t, err)
	assert.Equal(t, session.RoleSeller, s.Role)

	id, err := manager.Validate(ctx, s.Token, session.RoleSeller)
	require.NoError(t, err)
	assert.Equal(t, sl.ID, id)

	_, err = svc.Logout(ctx, s.Token)
	require.NoError(t, err)
	_, err = manager.Validate(ctx, s.Token, session.RoleSeller)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestService_RegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	reg := account.Registration{FirstName: "K", LastName: "S", MobileNo: "8000000001", EmailID: "k@example.com", Password: "seller-pass"}
	_, err := svc.Register(ctx, reg)
	require.NoError(t, err)

	reg.EmailID = "other@example.com"
	_, err = svc.Register(ctx, reg)
	assert.ErrorIs(t, err, account.ErrDuplicateAccount)
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Register(ctx, account.Registration{FirstName: "K", LastName: "S", MobileNo: "8000000001", EmailID: "k@example.com", Password: "seller-pass"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, account.Credentials{MobileNo: "8000000001", Password: "wrong"})
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)

	_, err = svc.Login(ctx, account.Credentials{MobileNo: "8000000002", Password: "seller-pass"})
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
}
