package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/password"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/store"
)

type fakeEvents struct {
	registered []int64
	deleted    []int64
	err        error
}

func (f *fakeEvents) CustomerRegistered(_ context.Context, c *customer.Customer) error {
	f.registered = append(f.registered, c.ID)
	return f.err
}

func (f *fakeEvents) CustomerDeleted(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

type harness struct {
	svc      *Service
	mem      *store.Memory
	orders   *order.MemoryRepository
	sessions *session.Manager
	events   *fakeEvents
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, _ := test.NewNullLogger()

	sessionRepo := session.NewMemoryRepository()
	mem := store.NewMemory(customer.NewMemoryRepository(), sessionRepo)
	orders := order.NewMemoryRepository()
	manager := session.NewManager(sessionRepo, time.Hour, logger)
	events := &fakeEvents{}

	return &harness{
		svc:      NewService(mem, orders, manager, password.NewBcrypt(4), events, logger),
		mem:      mem,
		orders:   orders,
		sessions: manager,
		events:   events,
	}
}

func registration(mobile, email string) Registration {
	return Registration{FirstName: "Asha", LastName: "Rao", MobileNo: mobile, EmailID: email, Password: "secret-pass"}
}

// registerAndLogin returns the new customer and a customer session token.
func (h *harness) registerAndLogin(t *testing.T, mobile, email string) (*customer.Customer, string) {
	t.Helper()
	ctx := context.Background()
	c, err := h.svc.Register(ctx, registration(mobile, email))
	require.NoError(t, err)
	s, err := h.svc.Login(ctx, Credentials{MobileNo: mobile, Password: "secret-pass"})
	require.NoError(t, err)
	return c, s.Token
}

func strPtr(s string) *string { return &s }

func TestRegister(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c, err := h.svc.Register(ctx, registration("9000000001", "asha@example.com"))
	require.NoError(t, err)

	assert.NotZero(t, c.ID)
	assert.Equal(t, c.ID, c.Cart.CustomerID)
	assert.NotNil(t, c.Orders)
	assert.Empty(t, c.Orders)
	assert.Empty(t, c.Addresses)
	assert.NotEqual(t, "secret-pass", c.PasswordHash)
	assert.Equal(t, []int64{c.ID}, h.events.registered)
}

func TestRegister_Duplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Register(ctx, registration("9000000001", "asha@example.com"))
	require.NoError(t, err)

	_, err = h.svc.Register(ctx, registration("9000000001", "other@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	_, err = h.svc.Register(ctx, registration("9000000002", "asha@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	all, err := h.mem.Read().Customers.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegister_PublishFailureDoesNotFail(t *testing.T) {
	h := newHarness(t)
	h.events.err = errors.New("broker down")

	_, err := h.svc.Register(context.Background(), registration("9000000001", "asha@example.com"))
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	id, err := h.sessions.Validate(ctx, token, session.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, c.ID, id)

	_, err = h.svc.Login(ctx, Credentials{MobileNo: "9000000001", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = h.svc.Login(ctx, Credentials{MobileNo: "9999999999", Password: "secret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	got, err := h.svc.Profile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "asha@example.com", got.EmailID)
}

func TestProfile_SessionErrorsPropagate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Profile(ctx, "not-a-token")
	assert.ErrorIs(t, err, session.ErrInvalidSession)

	sellerSession, err := h.sessions.Issue(ctx, 1, session.RoleSeller)
	require.NoError(t, err)
	_, err = h.svc.Profile(ctx, sellerSession.Token)
	assert.ErrorIs(t, err, session.ErrInvalidSession)

	unknown, err := session.NewToken(session.RoleCustomer)
	require.NoError(t, err)
	_, err = h.svc.Profile(ctx, unknown)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestProfile_AccountGone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	s, err := h.sessions.Issue(ctx, 404, session.RoleCustomer)
	require.NoError(t, err)

	_, err = h.svc.Profile(ctx, s.Token)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestReplaceProfile_MergesAddressesByID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	_, err := h.svc.UpdateAddress(ctx, token, customer.Address{Type: "home", City: "Pune"})
	require.NoError(t, err)
	c, err := h.svc.UpdateAddress(ctx, token, customer.Address{Type: "work", City: "Mumbai"})
	require.NoError(t, err)
	require.Len(t, c.Addresses, 2)
	homeID := *c.Addresses[0].ID

	updated, err := h.svc.ReplaceProfile(ctx, token, Update{
		MobileNo:  strPtr("9000000001"),
		FirstName: strPtr("Ashwini"),
		Addresses: []customer.Address{{ID: &homeID, Type: "home", City: "Nashik"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Ashwini", updated.FirstName)
	assert.Equal(t, "Rao", updated.LastName)
	require.Len(t, updated.Addresses, 2)
	assert.Equal(t, homeID, *updated.Addresses[0].ID)
	assert.Equal(t, "Nashik", updated.Addresses[0].City)
	assert.Equal(t, "work", updated.Addresses[1].Type)

	stored, err := h.svc.Profile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, updated.Addresses, stored.Addresses)
}

func TestReplaceProfile_LocatesByEmailWhenMobileUnknown(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	updated, err := h.svc.ReplaceProfile(ctx, token, Update{
		MobileNo: strPtr("9000000009"),
		EmailID:  strPtr("asha@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "9000000009", updated.MobileNo)
}

func TestReplaceProfile_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := h.registerAndLogin(t, "9000000001", "asha@example.com")
	_, _ = h.registerAndLogin(t, "9000000002", "ravi@example.com")

	_, err := h.svc.ReplaceProfile(ctx, token, Update{MobileNo: strPtr("9111111111"), EmailID: strPtr("nobody@example.com")})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = h.svc.ReplaceProfile(ctx, token, Update{MobileNo: strPtr("9000000002"), FirstName: strPtr("Mallory")})
	assert.ErrorIs(t, err, ErrVerification)

	_, err = h.svc.ReplaceProfile(ctx, token, Update{MobileNo: strPtr("9000000001"), EmailID: strPtr("ravi@example.com")})
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	other, err := h.mem.Read().Customers.FindByMobile(ctx, "9000000002")
	require.NoError(t, err)
	assert.Equal(t, "Asha", other.FirstName)
}

func TestReplaceProfile_PasswordRehashed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	_, err := h.svc.ReplaceProfile(ctx, token, Update{MobileNo: strPtr("9000000001"), Password: strPtr("brand-new-pass")})
	require.NoError(t, err)

	_, err = h.svc.Login(ctx, Credentials{MobileNo: "9000000001", Password: "brand-new-pass"})
	require.NoError(t, err)
}

func TestUpdateContact(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := h.registerAndLogin(t, "9000000001", "asha@example.com")
	_, _ = h.registerAndLogin(t, "9000000002", "ravi@example.com")

	c, err := h.svc.UpdateContact(ctx, token, ContactUpdate{EmailID: strPtr("asha.rao@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "asha.rao@example.com", c.EmailID)
	assert.Equal(t, "9000000001", c.MobileNo)

	c, err = h.svc.UpdateContact(ctx, token, ContactUpdate{MobileNo: strPtr("9000000003")})
	require.NoError(t, err)
	assert.Equal(t, "9000000003", c.MobileNo)
	assert.Equal(t, "asha.rao@example.com", c.EmailID)

	_, err = h.svc.UpdateContact(ctx, token, ContactUpdate{MobileNo: strPtr("9000000002")})
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestUpdatePassword_RevokesCallingToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	conf, err := h.svc.UpdatePassword(ctx, token, PasswordUpdate{MobileNo: "9000000001", Password: "new-password"})
	require.NoError(t, err)
	assert.Equal(t, token, conf.Token)
	assert.Equal(t, "Updated password and logged out. Login again with new password", conf.Message)

	_, err = h.svc.Profile(ctx, token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = h.svc.Login(ctx, Credentials{MobileNo: "9000000001", Password: "secret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = h.svc.Login(ctx, Credentials{MobileNo: "9000000001", Password: "new-password"})
	require.NoError(t, err)
}

func TestUpdatePassword_WrongMobile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	_, err := h.svc.UpdatePassword(ctx, token, PasswordUpdate{MobileNo: "9000000002", Password: "new-password"})
	assert.ErrorIs(t, err, ErrVerification)

	_, err = h.svc.Profile(ctx, token)
	require.NoError(t, err)
}

// failingRevokes wraps a unit of work so session deletes fail inside it.
type failingRevokes struct {
	store.UnitOfWork
}

type deleteFails struct {
	session.Repository
}

func (deleteFails) Delete(context.Context, string) error { return errors.New("session store unavailable") }

func (f failingRevokes) Do(ctx context.Context, fn func(context.Context, store.Stores) error) error {
	return f.UnitOfWork.Do(ctx, func(ctx context.Context, s store.Stores) error {
		s.Sessions = deleteFails{s.Sessions}
		return fn(ctx, s)
	})
}

func TestUpdatePassword_RevokeFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	logger, _ := test.NewNullLogger()
	svc := NewService(failingRevokes{h.mem}, h.orders, h.sessions, password.NewBcrypt(4), nil, logger)

	_, err := svc.UpdatePassword(ctx, token, PasswordUpdate{MobileNo: "9000000001", Password: "new-password"})
	require.Error(t, err)

	_, err = h.svc.Login(ctx, Credentials{MobileNo: "9000000001", Password: "secret-pass"})
	require.NoError(t, err, "old password must still work")
}

func TestUpdateCreditCard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	_, err := h.svc.UpdateCreditCard(ctx, token, customer.CreditCard{CardNumber: "4111111111111111", CardValidity: "01/29", CardCVV: "111"})
	require.NoError(t, err)
	c, err := h.svc.UpdateCreditCard(ctx, token, customer.CreditCard{CardNumber: "5500000000000004", CardValidity: "02/30", CardCVV: "222"})
	require.NoError(t, err)

	require.NotNil(t, c.CreditCard)
	assert.Equal(t, "5500000000000004", c.CreditCard.CardNumber)
	assert.Equal(t, "222", c.CreditCard.CardCVV)
}

func TestDeleteAddress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	_, err := h.svc.UpdateAddress(ctx, token, customer.Address{Type: "home", City: "Pune"})
	require.NoError(t, err)

	_, err = h.svc.DeleteAddress(ctx, token, "work")
	assert.ErrorIs(t, err, ErrNoSuchAddress)

	c, err := h.svc.Profile(ctx, token)
	require.NoError(t, err)
	require.Len(t, c.Addresses, 1)

	_, err = h.svc.UpdateAddress(ctx, token, customer.Address{Type: "Work", City: "Mumbai"})
	require.NoError(t, err)
	_, err = h.svc.UpdateAddress(ctx, token, customer.Address{Type: "work", City: "Thane"})
	require.NoError(t, err)

	c, err = h.svc.DeleteAddress(ctx, token, "WORK")
	require.NoError(t, err)
	require.Len(t, c.Addresses, 2)
	assert.Equal(t, "home", c.Addresses[0].Type)
	assert.Equal(t, "Thane", c.Addresses[1].City)
}

func TestDeleteAccount_WrongPasswordLeavesEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	_, err := h.svc.DeleteAccount(ctx, token, Credentials{MobileNo: "9000000001", Password: "nope"})
	assert.ErrorIs(t, err, ErrVerification)

	_, err = h.svc.DeleteAccount(ctx, token, Credentials{MobileNo: "9000000002", Password: "secret-pass"})
	assert.ErrorIs(t, err, ErrVerification)

	got, err := h.svc.Profile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Empty(t, h.events.deleted)
}

func TestDeleteAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	conf, err := h.svc.DeleteAccount(ctx, token, Credentials{MobileNo: "9000000001", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Deleted account and logged out successfully", conf.Message)
	assert.Equal(t, token, conf.Token)

	_, err = h.mem.Read().Customers.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, customer.ErrNotFound)
	_, err = h.svc.Profile(ctx, token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.Equal(t, []int64{c.ID}, h.events.deleted)
}

func TestListOrders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	_, err := h.svc.ListOrders(ctx, token)
	assert.ErrorIs(t, err, ErrNoOrders)

	for _, id := range []string{"o-1", "o-2", "o-3"} {
		_, err := h.orders.Record(ctx, &order.Order{ID: id, CustomerID: c.ID, TotalAmount: 10})
		require.NoError(t, err)
	}

	orders, err := h.svc.ListOrders(ctx, token)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "o-1", orders[0].ID)
	assert.Equal(t, "o-3", orders[2].ID)

	profile, err := h.svc.Profile(ctx, token)
	require.NoError(t, err)
	assert.Len(t, profile.Orders, 3)
}

func TestListAll(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sellerSession, err := h.sessions.Issue(ctx, 1, session.RoleSeller)
	require.NoError(t, err)

	_, err = h.svc.ListAll(ctx, sellerSession.Token)
	assert.ErrorIs(t, err, ErrNoRecords)

	_, customerToken := h.registerAndLogin(t, "9000000001", "asha@example.com")
	_, _ = h.registerAndLogin(t, "9000000002", "ravi@example.com")

	_, err = h.svc.ListAll(ctx, customerToken)
	assert.ErrorIs(t, err, session.ErrInvalidSession)

	all, err := h.svc.ListAll(ctx, sellerSession.Token)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "9000000001", all[0].MobileNo)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := h.registerAndLogin(t, "9000000001", "asha@example.com")

	conf, err := h.svc.Logout(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, token, conf.Token)

	_, err = h.svc.Profile(ctx, token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
