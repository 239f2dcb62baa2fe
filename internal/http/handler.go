package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/account"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/seller"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/session"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "token"

type AccountService interface {
	Register(ctx context.Context, r account.Registration) (*customer.Customer, error)
	Login(ctx context.Context, creds account.Credentials) (*session.Session, error)
	Logout(ctx context.Context, token string) (*session.Confirmation, error)
	Profile(ctx context.Context, token string) (*customer.Customer, error)
	ReplaceProfile(ctx context.Context, token string, u account.Update) (*customer.Customer, error)
	UpdateContact(ctx context.Context, token string, cu account.ContactUpdate) (*customer.Customer, error)
	UpdatePassword(ctx context.Context, token string, pu account.PasswordUpdate) (*session.Confirmation, error)
	UpdateAddress(ctx context.Context, token string, a customer.Address) (*customer.Customer, error)
	UpdateCreditCard(ctx context.Context, token string, card customer.CreditCard) (*customer.Customer, error)
	DeleteAddress(ctx context.Context, token, addressType string) (*customer.Customer, error)
	DeleteAccount(ctx context.Context, token string, creds account.Credentials) (*session.Confirmation, error)
	ListOrders(ctx context.Context, token string) ([]order.Order, error)
	ListAll(ctx context.Context, token string) ([]customer.Customer, error)
}

type SellerService interface {
	Register(ctx context.Context, r account.Registration) (*seller.Seller, error)
	Login(ctx context.Context, creds account.Credentials) (*session.Session, error)
	Logout(ctx context.Context, token string) (*session.Confirmation, error)
}

type Handler struct {
	accounts AccountService
	sellers  SellerService
	validate *validator.Validate
	logger   logrus.FieldLogger
}

func NewHandler(accounts AccountService, sellers SellerService, logger logrus.FieldLogger) *Handler {
	return &Handler{
		accounts: accounts,
		sellers:  sellers,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

type logoutRequest struct {
	Token string `json:"token"`
}

func (h *Handler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req account.Registration
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) LoginCustomer(w http.ResponseWriter, r *http.Request) {
	var req account.Credentials
	if !h.decode(w, r, &req) {
		return
	}
	s, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) LogoutCustomer(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, h.accounts.Logout)
}

func (h *Handler) RegisterSeller(w http.ResponseWriter, r *http.Request) {
	var req account.Registration
	if !h.decode(w, r, &req) {
		return
	}
	s, err := h.sellers.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) LoginSeller(w http.ResponseWriter, r *http.Request) {
	var req account.Credentials
	if !h.decode(w, r, &req) {
		return
	}
	s, err := h.sellers.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) LogoutSeller(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, h.sellers.Logout)
}

// logout takes the token from the body, falling back to the token header.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*session.Confirmation, error)) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Token == "" {
		req.Token = tokenFrom(r)
	}

	conf, err := fn(r.Context(), req.Token)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.accounts.ListAll(r.Context(), tokenFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *Handler) CurrentCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.accounts.Profile(r.Context(), tokenFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) ReplaceCustomer(w http.ResponseWriter, r *http.Request) {
	var req account.Update
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.accounts.ReplaceProfile(r.Context(), tokenFrom(r), req)
	h.accepted(w, r, c, err)
}

func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req account.ContactUpdate
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.accounts.UpdateContact(r.Context(), tokenFrom(r), req)
	h.accepted(w, r, c, err)
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req account.PasswordUpdate
	if !h.decode(w, r, &req) {
		return
	}
	conf, err := h.accounts.UpdatePassword(r.Context(), tokenFrom(r), req)
	h.accepted(w, r, conf, err)
}

func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var req customer.Address
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.accounts.UpdateAddress(r.Context(), tokenFrom(r), req)
	h.accepted(w, r, c, err)
}

func (h *Handler) UpdateCreditCard(w http.ResponseWriter, r *http.Request) {
	var req customer.CreditCard
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.accounts.UpdateCreditCard(r.Context(), tokenFrom(r), req)
	h.accepted(w, r, c, err)
}

func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	addressType := r.URL.Query().Get("type")
	if addressType == "" {
		writeError(w, r, http.StatusBadRequest, "missing address type")
		return
	}
	c, err := h.accounts.DeleteAddress(r.Context(), tokenFrom(r), addressType)
	h.accepted(w, r, c, err)
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	var req account.Credentials
	if !h.decode(w, r, &req) {
		return
	}
	conf, err := h.accounts.DeleteAccount(r.Context(), tokenFrom(r), req)
	h.accepted(w, r, conf, err)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.accounts.ListOrders(r.Context(), tokenFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) accepted(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, v)
}
