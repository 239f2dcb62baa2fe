package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/account"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/correlation"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/password"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/seller"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/store"
)

type testServer struct {
	handler http.Handler
	orders  *order.MemoryRepository
}

func newTestServer(t *testing.T, limiter *RateLimiter) *testServer {
	t.Helper()
	logger, _ := test.NewNullLogger()

	sessionRepo := session.NewMemoryRepository()
	sessions := session.NewManager(sessionRepo, time.Hour, logger)
	orders := order.NewMemoryRepository()
	hasher := password.NewBcrypt(4)

	accounts := account.NewService(
		store.NewMemory(customer.NewMemoryRepository(), sessionRepo),
		orders, sessions, hasher, nil, logger,
	)
	sellers := seller.NewService(seller.NewMemoryRepository(), sessions, hasher, logger)

	return &testServer{
		handler: NewRouter(Deps{
			Accounts:     accounts,
			Sellers:      sellers,
			Logger:       logger,
			AllowOrigins: []string{"*"},
			Limiter:      limiter,
		}),
		orders: orders,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

var asha = account.Registration{
	FirstName: "Asha",
	LastName:  "Rao",
	MobileNo:  "9876543210",
	EmailID:   "asha@example.com",
	Password:  "secret-pass",
}

func (s *testServer) login(t *testing.T, role string, creds account.Credentials) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/login/"+role, "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[session.Session](t, rec).Token
}

func TestCustomerLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	creds := account.Credentials{MobileNo: asha.MobileNo, Password: asha.Password}

	rec := srv.do(t, http.MethodPost, "/register/customer", "", asha)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[customer.Customer](t, rec)
	assert.NotZero(t, created.ID)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = srv.do(t, http.MethodPost, "/register/customer", "", asha)
	assert.Equal(t, http.StatusConflict, rec.Code)

	token := srv.login(t, "customer", creds)

	rec = srv.do(t, http.MethodGet, "/customer/current", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, asha.EmailID, decodeBody[customer.Customer](t, rec).EmailID)

	rec = srv.do(t, http.MethodPut, "/customer/update/address", token, customer.Address{Type: "home", City: "Pune", Pincode: "411001"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, decodeBody[customer.Customer](t, rec).Addresses, 1)

	rec = srv.do(t, http.MethodDelete, "/customer/delete/address?type=HOME", token, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, decodeBody[customer.Customer](t, rec).Addresses)

	rec = srv.do(t, http.MethodDelete, "/customer/delete/address?type=home", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/customer/orders", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := srv.orders.Record(context.Background(), &order.Order{
		ID: "o-1", CustomerID: created.ID, TotalAmount: 42.5, Status: order.StatusPending, OrderedAt: time.Now(),
	})
	require.NoError(t, err)

	rec = srv.do(t, http.MethodGet, "/customer/orders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decodeBody[[]order.Order](t, rec)
	require.Len(t, orders, 1)
	assert.Equal(t, "o-1", orders[0].ID)

	rec = srv.do(t, http.MethodDelete, "/customer", token, account.Credentials{MobileNo: asha.MobileNo, Password: "wrong-pass"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/customer", token, creds)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = srv.do(t, http.MethodGet, "/customer/current", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdatePasswordEndsSession(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/register/customer", "", asha).Code)
	token := srv.login(t, "customer", account.Credentials{MobileNo: asha.MobileNo, Password: asha.Password})

	rec := srv.do(t, http.MethodPut, "/customer/update/password", token, account.PasswordUpdate{MobileNo: asha.MobileNo, Password: "another-pass"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/customer/current", token, nil).Code)

	rec = srv.do(t, http.MethodPost, "/login/customer", "", account.Credentials{MobileNo: asha.MobileNo, Password: asha.Password})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	srv.login(t, "customer", account.Credentials{MobileNo: asha.MobileNo, Password: "another-pass"})
}

func TestUpdatePasswordRejectsOutOfRangeLength(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/register/customer", "", asha).Code)
	token := srv.login(t, "customer", account.Credentials{MobileNo: asha.MobileNo, Password: asha.Password})

	for name, pw := range map[string]string{
		"too short": "x",
		"too long":  strings.Repeat("a", 80),
	} {
		t.Run(name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPut, "/customer/update/password", token, account.PasswordUpdate{MobileNo: asha.MobileNo, Password: pw})
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), "Password")
		})
	}

	// Rejected updates leave the session and the old password in place.
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/customer/current", token, nil).Code)
	srv.login(t, "customer", account.Credentials{MobileNo: asha.MobileNo, Password: asha.Password})
}

func TestReplaceProfileAndContact(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/register/customer", "", asha).Code)
	token := srv.login(t, "customer", account.Credentials{MobileNo: asha.MobileNo, Password: asha.Password})

	name := "Asha R."
	mobile := asha.MobileNo
	rec := srv.do(t, http.MethodPut, "/customer", token, account.Update{FirstName: &name, MobileNo: &mobile})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, name, decodeBody[customer.Customer](t, rec).FirstName)

	email := "asha.rao@example.com"
	rec = srv.do(t, http.MethodPut, "/customer/update/credentials", token, account.ContactUpdate{EmailID: &email})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, email, decodeBody[customer.Customer](t, rec).EmailID)

	rec = srv.do(t, http.MethodPut, "/customer/update/card", token, customer.CreditCard{CardNumber: "4111111111111111", CardValidity: "12/29", CardCVV: "123"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotNil(t, decodeBody[customer.Customer](t, rec).CreditCard)
}

func TestSellerListsCustomers(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/register/customer", "", asha).Code)
	customerToken := srv.login(t, "customer", account.Credentials{MobileNo: asha.MobileNo, Password: asha.Password})

	shop := account.Registration{FirstName: "Ravi", LastName: "Shop", MobileNo: "9123456780", EmailID: "ravi@shop.example", Password: "seller-pass"}
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/register/seller", "", shop).Code)
	sellerToken := srv.login(t, "seller", account.Credentials{MobileNo: shop.MobileNo, Password: shop.Password})

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/customers", customerToken, nil).Code)

	rec := srv.do(t, http.MethodGet, "/customers", sellerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]customer.Customer](t, rec), 1)

	rec = srv.do(t, http.MethodPost, "/logout/seller", "", logoutRequest{Token: sellerToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/customers", sellerToken, nil).Code)
}

func TestLogoutFallsBackToHeader(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/register/customer", "", asha).Code)
	token := srv.login(t, "customer", account.Credentials{MobileNo: asha.MobileNo, Password: asha.Password})

	rec := srv.do(t, http.MethodPost, "/logout/customer", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, token, decodeBody[session.Confirmation](t, rec).Token)

	rec = srv.do(t, http.MethodPost, "/logout/customer", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidationErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	bad := asha
	bad.EmailID = "not-an-email"
	rec := srv.do(t, http.MethodPost, "/register/customer", "", bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Error, "EmailID")

	req := httptest.NewRequest(http.MethodPost, "/login/customer", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rec = srv.do(t, http.MethodDelete, "/customer/delete/address", "customer.x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/customer/current", "/customer/orders", "/customers"} {
		rec := srv.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.NotEmpty(t, decodeBody[errorResponse](t, rec).CorrelationID, path)
	}
}

func TestHealth(t *testing.T) {
	logger, _ := test.NewNullLogger()

	ok := NewRouter(Deps{Logger: logger, AllowOrigins: []string{"*"}})
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewRouter(Deps{
		Logger:       logger,
		AllowOrigins: []string{"*"},
		Health:       func(context.Context) error { return errors.New("db down") },
	})
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/customer/current", nil)
	req.Header.Set(correlation.Header, "cid-123")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, "cid-123", rec.Header().Get(correlation.Header))
	assert.Equal(t, "cid-123", decodeBody[errorResponse](t, rec).CorrelationID)
}
